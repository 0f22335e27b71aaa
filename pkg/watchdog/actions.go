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
	"github.com/21paradox/zxic-ping/pkg/metrics"
	"github.com/21paradox/zxic-ping/pkg/probe"
)

// Profile selects a set of kernel network parameters.
type Profile int

const (
	ProfileNormal Profile = iota
	ProfileThrottled
	ProfileOptimized
)

func (p Profile) String() string {
	switch p {
	case ProfileNormal:
		return "normal"
	case ProfileThrottled:
		return "throttled"
	case ProfileOptimized:
		return "optimized"
	default:
		return "unknown"
	}
}

// NetworkTuner changes kernel parameters.
type NetworkTuner interface {
	ApplyNetworkProfile(ctx context.Context, profile Profile) error
	ClearPageCache(ctx context.Context) error
}

// DebugBridge controls the adbd process.
type DebugBridge interface {
	Restart(ctx context.Context) error
	Kill(ctx context.Context) error
}

// Host covers whole-device operations.
type Host interface {
	Reboot(ctx context.Context) error
	TruncateLogFile() error
}

// Notifier delivers free-form status messages. Delivery is best effort.
type Notifier interface {
	Notify(message string)
}

// Prober checks reachability of the monitored endpoint.
type Prober interface {
	Probe(ctx context.Context) probe.Result
}

// actuator invokes capabilities on behalf of the state machines. Failures
// are logged and counted, never returned: no state depends on them.
type actuator struct {
	tuner    NetworkTuner
	host     Host
	notifier Notifier
	metrics  *metrics.Metrics
}

func (a *actuator) applyProfile(ctx context.Context, profile Profile) {
	err := a.tuner.ApplyNetworkProfile(ctx, profile)
	a.metrics.RecordAction("profile_"+profile.String(), err)
	if err != nil {
		log.Error("Failed to apply %s network profile: %v", profile, err)
		return
	}
	log.Info("Applied %s network profile", profile)
}

func (a *actuator) clearPageCache(ctx context.Context) {
	err := a.tuner.ClearPageCache(ctx)
	a.metrics.RecordAction("clear_page_cache", err)
	if err != nil {
		log.Error("Failed to clear page cache: %v", err)
		return
	}
	log.Info("Page cache cleared")
}

func (a *actuator) reboot(ctx context.Context) {
	log.Warn("Attempting system reboot...")
	err := a.host.Reboot(ctx)
	a.metrics.RecordAction("reboot", err)
	if err != nil {
		log.Error("Reboot attempt failed: %v", err)
	}
	log.Warn("Reboot did not take effect yet, continuing monitoring")
}

func (a *actuator) notify(message string) {
	a.notifier.Notify(message)
}
