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
	"sync"

	"github.com/21paradox/zxic-ping/pkg/cpustat"
	"github.com/21paradox/zxic-ping/pkg/probe"
)

type fakeTuner struct {
	mu          sync.Mutex
	profiles    []Profile
	cacheClears int
	err         error
}

func (f *fakeTuner) ApplyNetworkProfile(_ context.Context, profile Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, profile)
	return f.err
}

func (f *fakeTuner) ClearPageCache(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cacheClears++
	return f.err
}

func (f *fakeTuner) count(profile Profile) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.profiles {
		if p == profile {
			n++
		}
	}
	return n
}

type fakeBridge struct {
	restarts int
	kills    int
	err      error
}

func (f *fakeBridge) Restart(context.Context) error {
	f.restarts++
	return f.err
}

func (f *fakeBridge) Kill(context.Context) error {
	f.kills++
	return f.err
}

type fakeHost struct {
	reboots     int
	truncations int
	rebootErr   error
	truncateErr error
}

func (f *fakeHost) Reboot(context.Context) error {
	f.reboots++
	return f.rebootErr
}

func (f *fakeHost) TruncateLogFile() error {
	f.truncations++
	return f.truncateErr
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(message string) {
	f.messages = append(f.messages, message)
}

// scriptedSampler returns its snapshots in order and then repeats the last.
type scriptedSampler struct {
	steps []sampleStep
	calls int
}

type sampleStep struct {
	snap cpustat.Snapshot
	err  error
}

func (s *scriptedSampler) Sample() (cpustat.Snapshot, error) {
	i := s.calls
	s.calls++
	if len(s.steps) == 0 {
		return cpustat.Snapshot{}, nil
	}
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i].snap, s.steps[i].err
}

// scriptedProber works like scriptedSampler for probe results.
type scriptedProber struct {
	results []probe.Result
	calls   int
}

func (p *scriptedProber) Probe(context.Context) probe.Result {
	i := p.calls
	p.calls++
	if len(p.results) == 0 {
		return probe.Result{}
	}
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	return p.results[i]
}

func newTestActuator() (*actuator, *fakeTuner, *fakeHost, *fakeNotifier) {
	tuner := &fakeTuner{}
	host := &fakeHost{}
	notifier := &fakeNotifier{}
	return &actuator{tuner: tuner, host: host, notifier: notifier}, tuner, host, notifier
}
