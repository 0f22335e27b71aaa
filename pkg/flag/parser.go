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

import (
	"flag"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/21paradox/zxic-ping/pkg/log"
)

const (
	targetEnv      = "TARGET_IP"
	statusTokenEnv = "ZXPING_STATUS_TOKEN"
	settleEnv      = "ZXPING_SETTLE"

	defaultTarget = "127.0.0.1:80"
)

// settleExplicit records whether the settle delay came from env or CLI.
var settleExplicit bool

// SettleExplicit reports whether Settle should override the config file.
func SettleExplicit() bool {
	return settleExplicit
}

// InitFlags registers CLI flags and env overrides.
func InitFlags() {
	setDefaults()
	applyEnv()
	register(flag.CommandLine)

	// CommandLine exits on parse errors
	target, _ := parse(flag.CommandLine, os.Args[1:])
	if target != "" {
		TargetEndpoint = target
	}
	markExplicit(flag.CommandLine)

	log.Debug("Target endpoint is: %s", TargetEndpoint)
}

func setDefaults() {
	TargetEndpoint = defaultTarget
	Background = false
	Production = false
	ControlPort = 1300
	DeviceTag = "zxic"
	LogFile = "/etc_rw/zxping.log"
	LogLevel = 6
	StatusAddr = ""
	StatusToken = ""
	ConfigPath = ""
	Settle = 30 * time.Second
	settleExplicit = false
}

func applyEnv() {
	if target := os.Getenv(targetEnv); target != "" {
		TargetEndpoint = target
	}
	if token := os.Getenv(statusTokenEnv); token != "" {
		StatusToken = token
	}
	if settle := os.Getenv(settleEnv); settle != "" {
		duration, err := time.ParseDuration(settle)
		if err != nil {
			stdlog.Panicf("Failed to parse settle delay from env: %v", err)
		}
		Settle = duration
		settleExplicit = true
	}
}

func register(fs *flag.FlagSet) {
	fs.BoolVar(&Background, "background", Background, "Run detached from the terminal")
	fs.BoolVar(&Background, "b", Background, "Shorthand for --background")
	fs.BoolVar(&Production, "isprod", Production, "Suppress console logging")
	fs.IntVar(&ControlPort, "control-port", ControlPort, "UDP control port (default: 1300)")
	fs.StringVar(&DeviceTag, "device-tag", DeviceTag, "Tag prefixed to notifications (default: zxic)")
	fs.StringVar(&LogFile, "log-file", LogFile, "Log file emptied once a day")
	fs.IntVar(&LogLevel, "log-level", LogLevel, "Log level (3=Error, 4=Warning, 6=Informational, 7=Debug, default: 6)")
	fs.StringVar(&StatusAddr, "status-addr", StatusAddr, "Listen address of the status API, disabled when empty")
	fs.StringVar(&StatusToken, "status-token", StatusToken, "Access token for the status API")
	fs.StringVar(&ConfigPath, "config", ConfigPath, "YAML file with watchdog tunables")
	fs.DurationVar(&Settle, "settle", Settle, "Delay before the startup optimization (default: 30s)")
}

// parse accepts flags before and after positional arguments and returns the
// first positional argument.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	var target string
	for {
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return target, nil
		}
		if target == "" && !strings.HasPrefix(rest[0], "-") {
			target = rest[0]
		}
		args = rest[1:]
	}
}

func markExplicit(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "settle" {
			settleExplicit = true
		}
	})
}
