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

package adbd

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcesses struct {
	mu      sync.Mutex
	running map[int32][]string
	killErr map[int32]error
	listErr error
	// stubborn processes survive SIGKILL
	stubborn map[int32]bool
	killed   []int32
	started  []string
}

func newFakeProcesses(running map[int32][]string) *fakeProcesses {
	return &fakeProcesses{running: running, killErr: map[int32]error{}, stubborn: map[int32]bool{}}
}

func (f *fakeProcesses) controller() *Controller {
	c := NewController()
	c.PollInterval = time.Millisecond
	c.ExitTimeout = 50 * time.Millisecond
	c.list = func(context.Context) ([]ProcessInfo, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.listErr != nil {
			return nil, f.listErr
		}
		var infos []ProcessInfo
		for pid, args := range f.running {
			infos = append(infos, ProcessInfo{Pid: pid, Args: args})
		}
		return infos, nil
	}
	c.kill = func(_ context.Context, pid int32) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := f.killErr[pid]; err != nil {
			return err
		}
		f.killed = append(f.killed, pid)
		if !f.stubborn[pid] {
			delete(f.running, pid)
		}
		return nil
	}
	c.alive = func(_ context.Context, pid int32) (bool, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, ok := f.running[pid]
		return ok, nil
	}
	c.start = func(binary string) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.started = append(f.started, binary)
		return nil
	}
	return c
}

func TestKillMatchesArgvZero(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{
		100: {"/bin/adbd"},
		101: {"adbd", "--root"},
		102: {"/usr/bin/logcat", "adbd"},
		103: {"/sbin/adbd_helper"},
		104: {},
		int32(os.Getpid()): {"/bin/adbd"},
	})

	require.NoError(t, f.controller().Kill(context.Background()))
	assert.ElementsMatch(t, []int32{100, 101}, f.killed)
	assert.Empty(t, f.started)
}

func TestKillWithoutProcessIsNoop(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{1: {"/sbin/init"}})
	require.NoError(t, f.controller().Kill(context.Background()))
	assert.Empty(t, f.killed)
}

func TestKillReportsFailures(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{100: {"/bin/adbd"}, 101: {"/bin/adbd"}})
	f.killErr[101] = errors.New("operation not permitted")

	err := f.controller().Kill(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kill pid 101")
	assert.Equal(t, []int32{100}, f.killed)
}

func TestKillListError(t *testing.T) {
	f := newFakeProcesses(nil)
	f.listErr = errors.New("proc not mounted")
	assert.ErrorContains(t, f.controller().Kill(context.Background()), "proc not mounted")
}

func TestRestartKillsThenStarts(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{100: {"/bin/adbd"}})

	require.NoError(t, f.controller().Restart(context.Background()))
	assert.Equal(t, []int32{100}, f.killed)
	assert.Equal(t, []string{DefaultBinary}, f.started)
}

func TestRestartStartsWhenNothingRuns(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{})
	require.NoError(t, f.controller().Restart(context.Background()))
	assert.Equal(t, []string{DefaultBinary}, f.started)
}

func TestRestartStartsAfterExitTimeout(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{100: {"/bin/adbd"}})
	f.stubborn[100] = true

	begin := time.Now()
	require.NoError(t, f.controller().Restart(context.Background()))
	assert.GreaterOrEqual(t, time.Since(begin), 40*time.Millisecond)
	assert.Equal(t, []string{DefaultBinary}, f.started)
}

func TestRestartReportsStartFailure(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{})
	c := f.controller()
	c.start = func(string) error { return exec.ErrNotFound }

	assert.ErrorIs(t, c.Restart(context.Background()), exec.ErrNotFound)
}

func TestInvalidPattern(t *testing.T) {
	f := newFakeProcesses(map[int32][]string{100: {"/bin/adbd"}})
	c := f.controller()
	c.Pattern = "[adbd"

	assert.Error(t, c.Kill(context.Background()))
}

func TestSpawnDetached(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "fake-adbd")
	marker := script + ".ran"
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0o755))

	require.NoError(t, spawnDetached(script))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Error(t, spawnDetached(filepath.Join(t.TempDir(), "missing")))
}
