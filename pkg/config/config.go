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

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config carries the watchdog tunables. Every field has a default that
// matches the behaviour of the stock firmware build.
type Config struct {
	Load     LoadConfig     `yaml:"load"`
	Latency  LatencyConfig  `yaml:"latency"`
	Failure  FailureConfig  `yaml:"failure"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

type LoadConfig struct {
	// ThresholdPercent is exceeded strictly to count as elevated.
	ThresholdPercent float64 `yaml:"threshold_percent" validate:"gt=0,lte=100"`
	TriggerStreak    int     `yaml:"trigger_streak" validate:"min=1"`
	RecoveryStreak   int     `yaml:"recovery_streak" validate:"min=1"`
}

type LatencyConfig struct {
	Threshold     time.Duration `yaml:"threshold" validate:"gt=0"`
	TriggerStreak int           `yaml:"trigger_streak" validate:"min=1"`
}

type FailureConfig struct {
	MaxFailures int `yaml:"max_failures" validate:"min=1"`
}

type ScheduleConfig struct {
	CPUInterval   time.Duration `yaml:"cpu_interval" validate:"gte=1s"`
	ProbeInterval time.Duration `yaml:"probe_interval" validate:"gte=1s"`
	PruneInterval time.Duration `yaml:"prune_interval" validate:"gte=1m"`
	TickSleep     time.Duration `yaml:"tick_sleep" validate:"gte=100ms,lte=3s"`
	Settle        time.Duration `yaml:"settle" validate:"gte=0"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Load: LoadConfig{
			ThresholdPercent: 85,
			TriggerStreak:    3,
			RecoveryStreak:   3,
		},
		Latency: LatencyConfig{
			Threshold:     50 * time.Millisecond,
			TriggerStreak: 3,
		},
		Failure: FailureConfig{
			MaxFailures: 10,
		},
		Schedule: ScheduleConfig{
			CPUInterval:   30 * time.Second,
			ProbeInterval: 60 * time.Second,
			PruneInterval: 24 * time.Hour,
			TickSleep:     2 * time.Second,
			Settle:        30 * time.Second,
			ProbeTimeout:  3 * time.Second,
		},
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
