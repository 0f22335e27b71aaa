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
	"sync/atomic"
	"time"

	"github.com/21paradox/zxic-ping/pkg/control"
	"github.com/21paradox/zxic-ping/pkg/probe"
)

// ProbeStatus describes the latest connectivity check.
type ProbeStatus struct {
	Success   bool      `json:"success"`
	LatencyMs *int64    `json:"latency_ms,omitempty"`
	At        time.Time `json:"at"`
}

// Status is an immutable view of the scheduler state after a tick.
type Status struct {
	Target      string       `json:"target"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Load        LoadState    `json:"load"`
	Latency     LatencyState `json:"latency"`
	Failures    FailureState `json:"failures"`
	CPUUsage    *float64     `json:"cpu_usage_percent,omitempty"`
	LastProbe   *ProbeStatus `json:"last_probe,omitempty"`
	LastCommand string       `json:"last_command,omitempty"`
}

// statusHolder accumulates status fields on the scheduler goroutine and
// hands out copies through an atomic pointer.
type statusHolder struct {
	draft   Status
	current atomic.Pointer[Status]
}

func (h *statusHolder) init(target string) {
	h.draft = Status{Target: target}
	snapshot := h.draft
	h.current.Store(&snapshot)
}

func (h *statusHolder) recordUsage(usage float64) {
	h.draft.CPUUsage = &usage
}

func (h *statusHolder) recordProbe(now time.Time, res probe.Result) {
	ps := &ProbeStatus{Success: res.Success, At: now}
	if res.Measured {
		ms := res.Latency.Milliseconds()
		ps.LatencyMs = &ms
	}
	h.draft.LastProbe = ps
}

func (h *statusHolder) recordCommand(cmd control.Command) {
	h.draft.LastCommand = cmd.String()
}

func (h *statusHolder) publish(now time.Time, load LoadState, latency LatencyState, failures FailureState) {
	h.draft.UpdatedAt = now
	h.draft.Load = load
	h.draft.Latency = latency
	h.draft.Failures = failures
	snapshot := h.draft
	h.current.Store(&snapshot)
}

func (h *statusHolder) load() Status {
	if s := h.current.Load(); s != nil {
		return *s
	}
	return Status{}
}
