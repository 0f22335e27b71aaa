// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watchdog

import (
	"context"
	"fmt"

	"github.com/21paradox/zxic-ping/pkg/log"
)

type LoadMode int

const (
	LoadNormal LoadMode = iota
	LoadElevated
)

func (m LoadMode) String() string {
	if m == LoadElevated {
		return "elevated"
	}
	return "normal"
}

func (m LoadMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// LoadState is the hysteresis state of the CPU load machine.
type LoadState struct {
	Mode           LoadMode `json:"mode"`
	ElevatedStreak uint     `json:"elevated_streak"`
	RecoveryStreak uint     `json:"recovery_streak"`
}

// LoadMachine debounces CPU usage threshold crossings.
//
// The first sample over the threshold enters elevated mode and is reported
// right away. Network parameters are throttled only when the elevated streak
// reaches the trigger, and restored (plus a page cache drop) after the
// recovery streak of samples at or under the threshold.
type LoadMachine struct {
	threshold float64
	trigger   uint
	recovery  uint

	state LoadState
	act   *actuator
}

func newLoadMachine(threshold float64, trigger, recovery uint, act *actuator) *LoadMachine {
	return &LoadMachine{threshold: threshold, trigger: trigger, recovery: recovery, act: act}
}

func (m *LoadMachine) State() LoadState {
	return m.state
}

// Observe feeds one usage sample in percent.
func (m *LoadMachine) Observe(ctx context.Context, usage float64) {
	if usage > m.threshold {
		m.observeHigh(ctx, usage)
		return
	}
	if m.state.Mode == LoadNormal {
		return
	}
	m.observeRecovering(ctx, usage)
}

func (m *LoadMachine) observeHigh(ctx context.Context, usage float64) {
	m.state.RecoveryStreak = 0

	if m.state.Mode == LoadNormal {
		m.state.Mode = LoadElevated
		m.state.ElevatedStreak = 1
		log.Warn("High CPU usage detected: %.1f%%, entering high load mode", usage)
		m.act.notify(fmt.Sprintf("HIGH_LOAD_ENTER: CPU=%.1f%%", usage))
	} else {
		m.state.ElevatedStreak++
		log.Warn("High load mode active - CPU usage: %.1f%%", usage)
		m.act.notify(fmt.Sprintf("HIGH_LOAD: CPU=%.1f%%", usage))
	}

	if m.state.ElevatedStreak == m.trigger {
		m.act.applyProfile(ctx, ProfileThrottled)
	}
}

func (m *LoadMachine) observeRecovering(ctx context.Context, usage float64) {
	m.state.RecoveryStreak++
	log.Info("CPU usage normalized: %.1f%%, returning to normal mode (%d/%d)",
		usage, m.state.RecoveryStreak, m.recovery)

	recovered := m.state.RecoveryStreak >= m.recovery
	if recovered {
		m.state = LoadState{Mode: LoadNormal}
	}
	m.act.notify(fmt.Sprintf("HIGH_LOAD_EXIT: CPU=%.1f%%", usage))

	if recovered {
		m.act.applyProfile(ctx, ProfileNormal)
		m.act.clearPageCache(ctx)
	}
}
