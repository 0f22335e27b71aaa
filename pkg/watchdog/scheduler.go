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

package watchdog

import (
	"context"
	"time"

	"github.com/21paradox/zxic-ping/pkg/config"
	"github.com/21paradox/zxic-ping/pkg/control"
	"github.com/21paradox/zxic-ping/pkg/cpustat"
	"github.com/21paradox/zxic-ping/pkg/log"
	"github.com/21paradox/zxic-ping/pkg/metrics"
	"github.com/21paradox/zxic-ping/pkg/probe"
)

// Deps are the collaborators driven by the Scheduler.
type Deps struct {
	Target   string
	Sampler  cpustat.Sampler
	Prober   Prober
	Mailbox  *control.Mailbox
	Tuner    NetworkTuner
	Bridge   DebugBridge
	Host     Host
	Notifier Notifier
	Metrics  *metrics.Metrics
}

// Scheduler is the single control loop of the watchdog. It owns every piece
// of decision state; only the mailbox is shared with another goroutine.
//
// Each periodic check fires when the time elapsed since it last fired is at
// least its interval, and then measures the next interval from the firing
// tick. Late ticks therefore shift the schedule instead of queueing work.
type Scheduler struct {
	cfg  config.ScheduleConfig
	deps Deps
	act  *actuator

	load     *LoadMachine
	latency  *LatencyMachine
	failures *FailureCounter

	prevCPU   cpustat.Snapshot
	lastCPU   time.Time
	lastProbe time.Time
	lastPrune time.Time

	status statusHolder
}

func NewScheduler(cfg config.Config, deps Deps) *Scheduler {
	act := &actuator{
		tuner:    deps.Tuner,
		host:     deps.Host,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
	}
	s := &Scheduler{
		cfg:  cfg.Schedule,
		deps: deps,
		act:  act,
		load: newLoadMachine(cfg.Load.ThresholdPercent,
			uint(cfg.Load.TriggerStreak), uint(cfg.Load.RecoveryStreak), act),
		latency:  newLatencyMachine(cfg.Latency.Threshold, uint(cfg.Latency.TriggerStreak), act),
		failures: newFailureCounter(uint(cfg.Failure.MaxFailures), act),
	}
	s.status.init(deps.Target)
	return s
}

// Start takes the baseline CPU snapshot and arms every interval at now.
func (s *Scheduler) Start(now time.Time) {
	s.prevCPU = s.sampleOrZero()
	s.lastCPU = now
	s.lastProbe = now
	s.lastPrune = now
	s.publish(now)
}

// Run starts the scheduler, waits for the settle delay, applies the
// optimized network profile and then ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(time.Now())

	if s.cfg.Settle > 0 {
		log.Info("Waiting %s before tuning the network", s.cfg.Settle)
		if !sleepCtx(ctx, s.cfg.Settle) {
			return nil
		}
	}
	s.act.applyProfile(ctx, ProfileOptimized)

	for {
		s.Tick(ctx, time.Now())
		if !sleepCtx(ctx, s.cfg.TickSleep) {
			log.Info("Watchdog loop stopped")
			return nil
		}
	}
}

// Tick runs one iteration of the loop. now must come from time.Now so that
// interval checks use the monotonic clock.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.dispatch(ctx, s.deps.Mailbox.Take())

	if now.Sub(s.lastCPU) >= s.cfg.CPUInterval {
		s.checkCPU(ctx)
		s.lastCPU = now
	}
	if now.Sub(s.lastProbe) >= s.cfg.ProbeInterval {
		s.checkConnectivity(ctx, now)
		s.lastProbe = now
	}
	if now.Sub(s.lastPrune) >= s.cfg.PruneInterval {
		s.pruneLog()
		s.lastPrune = now
	}

	s.publish(now)
}

func (s *Scheduler) dispatch(ctx context.Context, cmd control.Command) {
	if cmd == control.CommandNone {
		return
	}
	s.deps.Metrics.RecordCommand(cmd.String())
	s.status.recordCommand(cmd)

	switch cmd {
	case control.CommandRestartDebugBridge:
		err := s.deps.Bridge.Restart(ctx)
		s.deps.Metrics.RecordAction("restart_adbd", err)
		if err != nil {
			log.Error("Failed to force restart adbd: %v", err)
			return
		}
		log.Info("adbd force restarted successfully")
		s.act.notify("ADBD_FORCE_RESTARTED")
	case control.CommandKillDebugBridge:
		err := s.deps.Bridge.Kill(ctx)
		s.deps.Metrics.RecordAction("kill_adbd", err)
		if err != nil {
			log.Error("Failed to force kill adbd: %v", err)
			return
		}
		log.Info("adbd force killed successfully")
		s.act.notify("ADBD_FORCE_KILLED")
	case control.CommandRestartHost:
		s.act.reboot(ctx)
	}
}

func (s *Scheduler) checkCPU(ctx context.Context) {
	cur, err := s.deps.Sampler.Sample()
	if err != nil {
		log.Warn("Failed to check CPU usage: %v", err)
		return
	}
	usage := cpustat.Usage(s.prevCPU, cur)
	s.prevCPU = cur
	s.deps.Metrics.ObserveCPU(usage)
	s.status.recordUsage(usage)

	s.load.Observe(ctx, usage)
}

func (s *Scheduler) checkConnectivity(ctx context.Context, now time.Time) {
	res := s.deps.Prober.Probe(ctx)
	s.deps.Metrics.ObserveProbe(res.Success, res.Latency, res.Measured)
	s.status.recordProbe(now, res)

	switch {
	case res.Success && res.Measured:
		s.latency.Observe(ctx, res.Latency)
		s.failures.Success()
	case res.Success:
		log.Info("Connection to %s successful, but duration not measured", s.deps.Target)
		s.latency.Reset()
		s.failures.Success()
	default:
		log.Warn("Connection to %s failed", s.deps.Target)
		s.failures.Failure(ctx)
	}
}

func (s *Scheduler) pruneLog() {
	err := s.deps.Host.TruncateLogFile()
	s.deps.Metrics.RecordAction("truncate_log", err)
	if err != nil {
		log.Error("Failed to clear log file: %v", err)
		return
	}
	log.Info("Log file cleared")
}

func (s *Scheduler) sampleOrZero() cpustat.Snapshot {
	snap, err := s.deps.Sampler.Sample()
	if err != nil {
		log.Warn("Failed to get initial CPU stats: %v", err)
		return cpustat.Snapshot{}
	}
	return snap
}

func (s *Scheduler) publish(now time.Time) {
	load := s.load.State()
	latency := s.latency.State()
	failures := s.failures.State()

	s.deps.Metrics.SetStreaks(metrics.Streaks{
		Elevated:       load.Mode == LoadElevated,
		ElevatedStreak: load.ElevatedStreak,
		RecoveryStreak: load.RecoveryStreak,
		LatencyStreak:  latency.HighStreak,
		Failures:       failures.ConsecutiveFailures,
	})
	s.status.publish(now, load, latency, failures)
}

// Status returns the state published after the latest tick. It is safe
// to call from any goroutine.
func (s *Scheduler) Status() Status {
	return s.status.load()
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ Prober = (*probe.Prober)(nil)
