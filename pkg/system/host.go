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

package system

import (
	"context"
	"fmt"
	"os"

	"github.com/21paradox/zxic-ping/pkg/watchdog"
)

const (
	DefaultRebootCommand = "/sbin/reboot"
	DefaultLogFile       = "/etc_rw/zxping.log"
)

// Host reboots the device and maintains the watchdog log file.
type Host struct {
	Runner        Runner
	RebootCommand string
	LogFile       string

	sync func()
}

func NewHost(logFile string) *Host {
	return &Host{
		Runner:        ExecRunner{},
		RebootCommand: DefaultRebootCommand,
		LogFile:       logFile,
		sync:          syncFilesystems,
	}
}

// Reboot flushes filesystem buffers and runs the reboot command. It returns
// when the command does, which means the reboot did not happen yet.
func (h *Host) Reboot(ctx context.Context) error {
	if h.sync != nil {
		h.sync()
	}
	if _, err := h.Runner.Run(ctx, h.RebootCommand); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}

// TruncateLogFile empties the log file, creating it when missing.
func (h *Host) TruncateLogFile() error {
	if h.LogFile == "" {
		return nil
	}
	if err := os.WriteFile(h.LogFile, nil, 0o644); err != nil {
		return fmt.Errorf("truncate %s: %w", h.LogFile, err)
	}
	return nil
}

var _ watchdog.Host = (*Host)(nil)
