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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoCPULine is returned when the aggregate "cpu " line is missing.
var ErrNoCPULine = errors.New("cannot find aggregate cpu line")

// minFields is the number of counters a usable aggregate line must carry.
// Older kernels lack guest_nice.
const minFields = 9

// Snapshot holds the cumulative per-state CPU counters of the whole system,
// in USER_HZ ticks.
type Snapshot struct {
	User      uint64 `json:"user"`
	Nice      uint64 `json:"nice"`
	System    uint64 `json:"system"`
	Idle      uint64 `json:"idle"`
	IOWait    uint64 `json:"iowait"`
	IRQ       uint64 `json:"irq"`
	SoftIRQ   uint64 `json:"softirq"`
	Steal     uint64 `json:"steal"`
	Guest     uint64 `json:"guest"`
	GuestNice uint64 `json:"guest_nice"`
}

func (s Snapshot) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait +
		s.IRQ + s.SoftIRQ + s.Steal + s.Guest + s.GuestNice
}

func (s Snapshot) IdleTotal() uint64 {
	return s.Idle + s.IOWait
}

func (s Snapshot) Active() uint64 {
	return s.Total() - s.IdleTotal()
}

// Usage returns the busy percentage between two snapshots.
// A non-positive total delta (first sample, counter wrap) yields 0.
func Usage(prev, cur Snapshot) float64 {
	totalDelta := int64(cur.Total()) - int64(prev.Total())
	if totalDelta <= 0 {
		return 0
	}
	activeDelta := int64(cur.Active()) - int64(prev.Active())
	usage := float64(activeDelta) / float64(totalDelta) * 100
	switch {
	case usage < 0:
		return 0
	case usage > 100:
		return 100
	}
	return usage
}

// ParseStat scans /proc/stat formatted content for the aggregate line.
func ParseStat(r io.Reader) (Snapshot, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		return ParseStatLine(line)
	}
	if err := scanner.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("scan stat: %w", err)
	}
	return Snapshot{}, ErrNoCPULine
}

// ParseStatLine parses "cpu user nice system idle iowait irq softirq steal guest [guest_nice]".
// Unparsable counters are read as 0.
func ParseStatLine(line string) (Snapshot, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "cpu" {
		return Snapshot{}, ErrNoCPULine
	}
	counters := fields[1:]
	if len(counters) < minFields {
		return Snapshot{}, fmt.Errorf("aggregate cpu line has %d counters, want at least %d", len(counters), minFields)
	}

	at := func(i int) uint64 {
		if i >= len(counters) {
			return 0
		}
		v, _ := strconv.ParseUint(counters[i], 10, 64)
		return v
	}
	return Snapshot{
		User:      at(0),
		Nice:      at(1),
		System:    at(2),
		Idle:      at(3),
		IOWait:    at(4),
		IRQ:       at(5),
		SoftIRQ:   at(6),
		Steal:     at(7),
		Guest:     at(8),
		GuestNice: at(9),
	}, nil
}
