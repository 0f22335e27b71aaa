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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zxping"

// Metrics exposes the watchdog's decisions to Prometheus. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cpuUsage       prometheus.Gauge
	probeLatency   prometheus.Histogram
	probesTotal    *prometheus.CounterVec
	actionsTotal   *prometheus.CounterVec
	commandsTotal  *prometheus.CounterVec
	datagramsTotal *prometheus.CounterVec
	loadElevated   prometheus.Gauge
	elevatedStreak prometheus.Gauge
	recoveryStreak prometheus.Gauge
	latencyStreak  prometheus.Gauge
	failureStreak  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		cpuUsage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_usage_percent",
			Help:      "CPU usage between the two most recent samples",
		}),
		probeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_connect_seconds",
			Help:      "TCP connect time of successful probes",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 3},
		}),
		probesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Connectivity probes by result",
		}, []string{"result"}),
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Remediation actions invoked",
		}, []string{"action", "result"}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_commands_total",
			Help:      "Commands dispatched from the control channel",
		}, []string{"command"}),
		datagramsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_datagrams_total",
			Help:      "Recognized control datagrams received, including pings",
		}, []string{"command"}),
		loadElevated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_elevated",
			Help:      "1 while the load machine is in elevated mode",
		}),
		elevatedStreak: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_elevated_streak",
			Help:      "Consecutive CPU samples over the threshold",
		}),
		recoveryStreak: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_recovery_streak",
			Help:      "Consecutive CPU samples at or under the threshold while elevated",
		}),
		latencyStreak: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_high_streak",
			Help:      "Consecutive slow successful probes",
		}),
		failureStreak: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_consecutive_failures",
			Help:      "Consecutive failed probes",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveCPU(usage float64) {
	if m == nil {
		return
	}
	m.cpuUsage.Set(usage)
}

func (m *Metrics) ObserveProbe(success bool, latency time.Duration, measured bool) {
	if m == nil {
		return
	}
	if !success {
		m.probesTotal.WithLabelValues("failure").Inc()
		return
	}
	m.probesTotal.WithLabelValues("success").Inc()
	if measured {
		m.probeLatency.Observe(latency.Seconds())
	}
}

func (m *Metrics) RecordAction(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.actionsTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) RecordCommand(command string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command).Inc()
}

// RecordDatagram counts a recognized control payload on receipt. Commands
// overwritten in the mailbox before dispatch are counted here only.
func (m *Metrics) RecordDatagram(command string) {
	if m == nil {
		return
	}
	m.datagramsTotal.WithLabelValues(command).Inc()
}

// Streaks mirrors the hysteresis counters of the scheduler.
type Streaks struct {
	Elevated       bool
	ElevatedStreak uint
	RecoveryStreak uint
	LatencyStreak  uint
	Failures       uint
}

func (m *Metrics) SetStreaks(s Streaks) {
	if m == nil {
		return
	}
	if s.Elevated {
		m.loadElevated.Set(1)
	} else {
		m.loadElevated.Set(0)
	}
	m.elevatedStreak.Set(float64(s.ElevatedStreak))
	m.recoveryStreak.Set(float64(s.RecoveryStreak))
	m.latencyStreak.Set(float64(s.LatencyStreak))
	m.failureStreak.Set(float64(s.Failures))
}
