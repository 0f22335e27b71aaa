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
	"time"

	"github.com/21paradox/zxic-ping/pkg/log"
)

// LatencyState counts consecutive slow successful probes. The streak is not
// capped at the trigger value.
type LatencyState struct {
	HighStreak uint `json:"high_streak"`
}

// LatencyMachine throttles the network after a streak of slow connects and
// restores it on the next fast one.
//
// Restore only fires when the streak is exactly at the trigger value. A
// streak that grew past the trigger resets without restoring; the throttled
// profile then stays in place until the load machine restores it.
type LatencyMachine struct {
	threshold time.Duration
	trigger   uint

	state LatencyState
	act   *actuator
}

func newLatencyMachine(threshold time.Duration, trigger uint, act *actuator) *LatencyMachine {
	return &LatencyMachine{threshold: threshold, trigger: trigger, act: act}
}

func (m *LatencyMachine) State() LatencyState {
	return m.state
}

// Observe feeds the connect time of a successful probe. Latencies are
// compared in whole milliseconds, so 50.9ms is not over a 50ms threshold.
func (m *LatencyMachine) Observe(ctx context.Context, latency time.Duration) {
	if latency.Milliseconds() > m.threshold.Milliseconds() {
		m.state.HighStreak++
		log.Warn("High latency detected: %dms (> %dms), count %d/%d",
			latency.Milliseconds(), m.threshold.Milliseconds(), m.state.HighStreak, m.trigger)
		m.act.notify(fmt.Sprintf("HIGH_LATENCY: %dms (%d/%d)",
			latency.Milliseconds(), m.state.HighStreak, m.trigger))

		if m.state.HighStreak == m.trigger {
			log.Warn("%d consecutive high latency connections detected", m.trigger)
			m.act.applyProfile(ctx, ProfileThrottled)
		}
		return
	}

	if m.state.HighStreak == m.trigger {
		m.act.applyProfile(ctx, ProfileNormal)
	}
	m.state.HighStreak = 0
}

// Reset clears the streak without restoring, for successful probes that
// carry no latency measurement.
func (m *LatencyMachine) Reset() {
	m.state.HighStreak = 0
}
