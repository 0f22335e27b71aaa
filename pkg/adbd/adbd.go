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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shirou/gopsutil/process"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/21paradox/zxic-ping/pkg/log"
	"github.com/21paradox/zxic-ping/pkg/watchdog"
)

const (
	DefaultBinary  = "/bin/adbd"
	DefaultPattern = "**/adbd"

	defaultExitTimeout  = 3 * time.Second
	defaultPollInterval = 200 * time.Millisecond
)

// ProcessInfo identifies a running process by pid and argv.
type ProcessInfo struct {
	Pid  int32
	Args []string
}

// Controller kills and restarts the Android debug bridge daemon.
type Controller struct {
	// Binary is started by Restart.
	Binary string
	// Pattern is matched against argv[0] without its leading slash.
	Pattern string
	// ExitTimeout bounds the wait for killed processes to disappear.
	ExitTimeout  time.Duration
	PollInterval time.Duration

	list  func(ctx context.Context) ([]ProcessInfo, error)
	kill  func(ctx context.Context, pid int32) error
	alive func(ctx context.Context, pid int32) (bool, error)
	start func(binary string) error
}

func NewController() *Controller {
	return &Controller{
		Binary:       DefaultBinary,
		Pattern:      DefaultPattern,
		ExitTimeout:  defaultExitTimeout,
		PollInterval: defaultPollInterval,
		list:         listProcesses,
		kill:         killProcess,
		alive:        process.PidExistsWithContext,
		start:        spawnDetached,
	}
}

// Kill sends SIGKILL to every matching process. Finding none is not an
// error.
func (c *Controller) Kill(ctx context.Context) error {
	_, err := c.killAll(ctx)
	return err
}

// Restart kills running instances, waits for them to exit and starts a
// fresh daemon. The daemon is started even when none was running.
func (c *Controller) Restart(ctx context.Context) error {
	killed, err := c.killAll(ctx)
	if err != nil {
		log.Warn("adbd kill incomplete: %v", err)
	}
	if len(killed) > 0 {
		c.waitExit(ctx, killed)
	}

	log.Info("Starting %s", c.Binary)
	if err := c.start(c.Binary); err != nil {
		return fmt.Errorf("start %s: %w", c.Binary, err)
	}
	return nil
}

func (c *Controller) killAll(ctx context.Context) ([]int32, error) {
	targets, err := c.find(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		log.Info("No adbd process found")
		return nil, nil
	}

	var (
		killed []int32
		errs   []error
	)
	for _, pid := range targets {
		if err := c.kill(ctx, pid); err != nil {
			errs = append(errs, fmt.Errorf("kill pid %d: %w", pid, err))
			continue
		}
		log.Info("Killed adbd pid %d", pid)
		killed = append(killed, pid)
	}
	return killed, errors.Join(errs...)
}

func (c *Controller) find(ctx context.Context) ([]int32, error) {
	procs, err := c.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	self := int32(os.Getpid())

	var pids []int32
	for _, p := range procs {
		if p.Pid == self || len(p.Args) == 0 {
			continue
		}
		ok, err := doublestar.Match(c.Pattern, strings.TrimPrefix(p.Args[0], "/"))
		if err != nil {
			return nil, fmt.Errorf("match pattern %q: %w", c.Pattern, err)
		}
		if ok {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

func (c *Controller) waitExit(ctx context.Context, pids []int32) {
	err := wait.PollUntilContextTimeout(ctx, c.PollInterval, c.ExitTimeout, true,
		func(ctx context.Context) (bool, error) {
			for _, pid := range pids {
				alive, err := c.alive(ctx, pid)
				if err != nil || alive {
					return false, nil
				}
			}
			return true, nil
		})
	if err != nil {
		log.Warn("adbd did not exit within %s: %v", c.ExitTimeout, err)
	}
}

func listProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil {
			// exited while scanning
			continue
		}
		infos = append(infos, ProcessInfo{Pid: p.Pid, Args: args})
	}
	return infos, nil
}

func killProcess(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}

var _ watchdog.DebugBridge = (*Controller)(nil)
