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

package flag

import "time"

var (
	// TargetEndpoint is the host:port probed and notified.
	TargetEndpoint string

	// Background detaches the process from its terminal.
	Background bool

	// Production suppresses console logging.
	Production bool

	// ControlPort is the UDP port of the command channel.
	ControlPort int

	// DeviceTag prefixes outbound notifications.
	DeviceTag string

	// LogFile is emptied once a day.
	LogFile string

	// LogLevel controls the log verbosity.
	LogLevel int

	// StatusAddr enables the status API when set.
	StatusAddr string

	// StatusToken guards the status API when set.
	StatusToken string

	// ConfigPath points to an optional YAML tunables file.
	ConfigPath string

	// Settle delays the first optimization after startup.
	Settle time.Duration
)
