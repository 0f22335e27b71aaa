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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	slow = 120 * time.Millisecond
	fast = 10 * time.Millisecond
)

func newTestLatencyMachine() (*LatencyMachine, *fakeTuner, *fakeNotifier) {
	act, tuner, _, notifier := newTestActuator()
	return newLatencyMachine(50*time.Millisecond, 3, act), tuner, notifier
}

func TestLatencyThrottleThenRestore(t *testing.T) {
	m, tuner, notifier := newTestLatencyMachine()
	ctx := context.Background()

	m.Observe(ctx, slow)
	m.Observe(ctx, slow)
	assert.Equal(t, 0, tuner.count(ProfileThrottled))
	m.Observe(ctx, slow)
	assert.Equal(t, 1, tuner.count(ProfileThrottled))
	assert.Equal(t, uint(3), m.State().HighStreak)

	m.Observe(ctx, fast)
	assert.Equal(t, 1, tuner.count(ProfileNormal))
	assert.Zero(t, m.State().HighStreak)

	assert.Equal(t, []string{
		"HIGH_LATENCY: 120ms (1/3)",
		"HIGH_LATENCY: 120ms (2/3)",
		"HIGH_LATENCY: 120ms (3/3)",
	}, notifier.messages)
}

// The restore check is an exact match on the trigger value, so a streak
// that overshoots leaves the throttled profile in place.
func TestLatencyOvershootSkipsRestore(t *testing.T) {
	m, tuner, _ := newTestLatencyMachine()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		m.Observe(ctx, slow)
	}
	assert.Equal(t, 1, tuner.count(ProfileThrottled))
	assert.Equal(t, uint(4), m.State().HighStreak)

	m.Observe(ctx, fast)
	assert.Equal(t, 0, tuner.count(ProfileNormal))
	assert.Zero(t, m.State().HighStreak)
}

func TestLatencyAtThresholdIsNormal(t *testing.T) {
	m, tuner, notifier := newTestLatencyMachine()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.Observe(ctx, 50*time.Millisecond)
	}
	assert.Zero(t, m.State().HighStreak)
	assert.Empty(t, tuner.profiles)
	assert.Empty(t, notifier.messages)
}

func TestLatencyComparesWholeMilliseconds(t *testing.T) {
	m, tuner, notifier := newTestLatencyMachine()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.Observe(ctx, 50*time.Millisecond+900*time.Microsecond)
	}
	assert.Zero(t, m.State().HighStreak)
	assert.Empty(t, tuner.profiles)
	assert.Empty(t, notifier.messages)

	m.Observe(ctx, 51*time.Millisecond)
	assert.Equal(t, uint(1), m.State().HighStreak)
	assert.Equal(t, []string{"HIGH_LATENCY: 51ms (1/3)"}, notifier.messages)
}

func TestLatencyNormalSampleBreaksStreak(t *testing.T) {
	m, tuner, _ := newTestLatencyMachine()
	ctx := context.Background()

	m.Observe(ctx, slow)
	m.Observe(ctx, slow)
	m.Observe(ctx, fast)
	m.Observe(ctx, slow)
	m.Observe(ctx, slow)
	assert.Equal(t, 0, tuner.count(ProfileThrottled))
	assert.Equal(t, uint(2), m.State().HighStreak)
}

func TestLatencyResetDoesNotRestore(t *testing.T) {
	m, tuner, _ := newTestLatencyMachine()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.Observe(ctx, slow)
	}
	m.Reset()
	assert.Zero(t, m.State().HighStreak)
	assert.Equal(t, 0, tuner.count(ProfileNormal))
}
