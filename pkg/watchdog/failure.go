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

	"github.com/21paradox/zxic-ping/pkg/log"
)

type FailureState struct {
	ConsecutiveFailures uint `json:"consecutive_failures"`
}

// FailureCounter reboots the host once limit probes have failed in a
// row. The counter is left as is after a reboot attempt, so each further
// failing probe attempts the reboot again until it takes effect or the
// target becomes reachable.
type FailureCounter struct {
	limit uint
	state FailureState
	act   *actuator
}

func newFailureCounter(limit uint, act *actuator) *FailureCounter {
	return &FailureCounter{limit: limit, act: act}
}

func (f *FailureCounter) State() FailureState {
	return f.state
}

func (f *FailureCounter) Success() {
	f.state.ConsecutiveFailures = 0
}

func (f *FailureCounter) Failure(ctx context.Context) {
	f.state.ConsecutiveFailures++
	log.Warn("Failure count: %d/%d", f.state.ConsecutiveFailures, f.limit)

	if f.state.ConsecutiveFailures >= f.limit {
		log.Error("Critical: %d consecutive failures detected, initiating system reboot", f.state.ConsecutiveFailures)
		f.act.reboot(ctx)
	}
}
