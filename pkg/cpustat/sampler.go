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

package cpustat

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/cpu"
)

const (
	DefaultStatPath = "/proc/stat"

	// userHZ converts gopsutil seconds back into kernel ticks.
	userHZ = 100
)

// Sampler produces a fresh aggregate snapshot on every call.
type Sampler interface {
	Sample() (Snapshot, error)
}

// ProcStatSampler reads the kernel accounting file directly.
type ProcStatSampler struct {
	Path string
}

func (s *ProcStatSampler) Sample() (Snapshot, error) {
	path := s.Path
	if path == "" {
		path = DefaultStatPath
	}
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	snap, err := ParseStat(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return snap, nil
}

// TimesSampler asks gopsutil for the aggregate times. It serves hosts
// without a readable /proc/stat.
type TimesSampler struct {
	times func(percpu bool) ([]cpu.TimesStat, error)
}

func (s *TimesSampler) Sample() (Snapshot, error) {
	times := s.times
	if times == nil {
		times = cpu.Times
	}
	stats, err := times(false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cpu times: %w", err)
	}
	if len(stats) == 0 {
		return Snapshot{}, ErrNoCPULine
	}
	return fromTimesStat(stats[0]), nil
}

func fromTimesStat(t cpu.TimesStat) Snapshot {
	ticks := func(sec float64) uint64 {
		if sec <= 0 {
			return 0
		}
		return uint64(sec * userHZ)
	}
	return Snapshot{
		User:      ticks(t.User),
		Nice:      ticks(t.Nice),
		System:    ticks(t.System),
		Idle:      ticks(t.Idle),
		IOWait:    ticks(t.Iowait),
		IRQ:       ticks(t.Irq),
		SoftIRQ:   ticks(t.Softirq),
		Steal:     ticks(t.Steal),
		Guest:     ticks(t.Guest),
		GuestNice: ticks(t.GuestNice),
	}
}

// NewSampler prefers the stat file at path and falls back to gopsutil
// when it cannot be read.
func NewSampler(path string) Sampler {
	procfs := &ProcStatSampler{Path: path}
	if _, err := procfs.Sample(); err == nil {
		return procfs
	}
	return &TimesSampler{}
}
