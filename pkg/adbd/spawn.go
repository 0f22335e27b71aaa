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

//go:build !windows
// +build !windows

package adbd

import (
	"os/exec"
	"syscall"

	"github.com/21paradox/zxic-ping/pkg/log"
	"github.com/21paradox/zxic-ping/pkg/util/safego"
)

// spawnDetached starts binary in its own session and reaps it in the
// background.
func spawnDetached(binary string) error {
	cmd := exec.Command(binary)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	safego.Go(func() {
		if err := cmd.Wait(); err != nil {
			log.Warn("%s exited: %v", binary, err)
		}
	})
	return nil
}
