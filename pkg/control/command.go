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

package control

// Command is a remediation requested over the control channel.
type Command uint32

const (
	CommandNone Command = iota
	CommandRestartDebugBridge
	CommandKillDebugBridge
	CommandRestartHost
)

// Wire payloads. They are compared byte for byte.
const (
	PayloadRestartDebugBridge = "RESTART_ADBD"
	PayloadKillDebugBridge    = "KILL_ADBD"
	PayloadRestartHost        = "RESTART_SERVER"
	PayloadPing               = "PING"

	// Ack is echoed to the sender of every recognized payload.
	Ack = "OK"
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandRestartDebugBridge:
		return "restart_adbd"
	case CommandKillDebugBridge:
		return "kill_adbd"
	case CommandRestartHost:
		return "restart_host"
	default:
		return "unknown"
	}
}

// Decode maps a datagram to a command. PING is recognized but carries no
// command. ok is false for anything else.
func Decode(payload []byte) (cmd Command, ok bool) {
	switch string(payload) {
	case PayloadRestartDebugBridge:
		return CommandRestartDebugBridge, true
	case PayloadKillDebugBridge:
		return CommandKillDebugBridge, true
	case PayloadRestartHost:
		return CommandRestartHost, true
	case PayloadPing:
		return CommandNone, true
	default:
		return CommandNone, false
	}
}
