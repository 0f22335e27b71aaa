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

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/21paradox/zxic-ping/pkg/adbd"
	"github.com/21paradox/zxic-ping/pkg/config"
	"github.com/21paradox/zxic-ping/pkg/control"
	"github.com/21paradox/zxic-ping/pkg/cpustat"
	"github.com/21paradox/zxic-ping/pkg/daemon"
	"github.com/21paradox/zxic-ping/pkg/flag"
	"github.com/21paradox/zxic-ping/pkg/log"
	"github.com/21paradox/zxic-ping/pkg/metrics"
	"github.com/21paradox/zxic-ping/pkg/notify"
	"github.com/21paradox/zxic-ping/pkg/probe"
	"github.com/21paradox/zxic-ping/pkg/system"
	"github.com/21paradox/zxic-ping/pkg/util/safego"
	"github.com/21paradox/zxic-ping/pkg/watchdog"
	"github.com/21paradox/zxic-ping/pkg/web"
)

// main initializes and starts the watchdog.
func main() {
	os.Exit(run())
}

func run() int {
	flag.InitFlags()

	if flag.Background && !daemon.IsDetached() {
		pid, err := daemon.Detach()
		if err != nil {
			log.Error("failed to run in background: %v", err)
			return 1
		}
		log.Info("watchdog detached as pid %d", pid)
		return 0
	}

	if err := log.Configure(flag.Production); err != nil {
		log.Error("%v", err)
		return 1
	}
	log.SetLevel(flag.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	safego.InitPanicLogger(ctx)

	cfg, err := config.Load(flag.ConfigPath)
	if err != nil {
		log.Error("failed to load config: %v", err)
		return 1
	}
	if flag.SettleExplicit() {
		cfg.Schedule.Settle = flag.Settle
	}

	if err := probe.ValidateTarget(flag.TargetEndpoint); err != nil {
		log.Error("%v", err)
		return 1
	}

	m := metrics.New()
	mailbox := &control.Mailbox{}
	listener, err := control.ListenPort(flag.ControlPort, mailbox)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer listener.Close()
	listener.OnCommand = func(cmd control.Command, _ *net.UDPAddr) {
		m.RecordDatagram(cmd.String())
	}
	log.Info("Control channel listening on %s", listener.Addr())
	safego.Go(func() { listener.Serve(ctx) })

	prober := probe.NewProber(flag.TargetEndpoint)
	prober.Timeout = cfg.Schedule.ProbeTimeout

	scheduler := watchdog.NewScheduler(cfg, watchdog.Deps{
		Target:   flag.TargetEndpoint,
		Sampler:  cpustat.NewSampler(cpustat.DefaultStatPath),
		Prober:   prober,
		Mailbox:  mailbox,
		Tuner:    system.NewTuner(),
		Bridge:   adbd.NewController(),
		Host:     system.NewHost(flag.LogFile),
		Notifier: notify.NewUDPNotifier(flag.TargetEndpoint, flag.DeviceTag),
		Metrics:  m,
	})

	if flag.StatusAddr != "" {
		engine := web.NewRouter(flag.StatusToken, scheduler, m.Registry())
		safego.Go(func() {
			if err := web.Serve(ctx, flag.StatusAddr, engine); err != nil {
				log.Error("status API stopped: %v", err)
			}
		})
	}

	log.Info("Network monitor started for %s", flag.TargetEndpoint)
	log.Info("CPU check every %s, network check every %s, reboot after %d consecutive failures",
		cfg.Schedule.CPUInterval, cfg.Schedule.ProbeInterval, cfg.Failure.MaxFailures)
	if err := scheduler.Run(ctx); err != nil {
		log.Error("watchdog stopped: %v", err)
		return 1
	}
	return 0
}
