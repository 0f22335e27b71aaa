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
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external programs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec and returns their combined output.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return out, fmt.Errorf("%s exited with code %d: %s",
				name, exitError.ExitCode(), strings.TrimSpace(string(out)))
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

// shell runs a command line through sh.
func shell(ctx context.Context, r Runner, line string) error {
	if _, err := r.Run(ctx, "sh", "-c", line); err != nil {
		return fmt.Errorf("%q: %w", line, err)
	}
	return nil
}
