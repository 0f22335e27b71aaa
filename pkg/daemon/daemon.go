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

package daemon

import "os"

// EnvMarker is set in the environment of the detached child.
const EnvMarker = "ZXPING_DAEMONIZED"

// IsDetached reports whether this process is the detached child.
func IsDetached() bool {
	return os.Getenv(EnvMarker) == "1"
}

// childArgs drops the background flags so the child runs in the foreground
// of its own session.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "-b", "--b", "-background", "--background", "-background=true", "--background=true":
			continue
		}
		out = append(out, arg)
	}
	return out
}
