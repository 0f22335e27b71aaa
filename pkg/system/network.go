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

package system

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/21paradox/zxic-ping/pkg/log"
	"github.com/21paradox/zxic-ping/pkg/watchdog"
)

// Sysctl is a kernel parameter below /proc/sys.
type Sysctl struct {
	Key   string
	Value string
}

func (s Sysctl) command() string {
	return fmt.Sprintf("echo %s > /proc/sys/%s", s.Value, s.Key)
}

const (
	conntrackPrefix = "net/ipv4/netfilter/ip_conntrack_"

	defaultLANNetwork   = "192.168.0.0/24"
	defaultBridge       = "br0"
	defaultWAN          = "wan1"
	defaultRestorePace  = 200 * time.Millisecond
	dropCachesCommand   = "echo 1 > /proc/sys/vm/drop_caches"
	linkLocalPrefix     = "169.254."
	defaultRouteKeyword = "default"
)

var throttledSysctls = []Sysctl{
	{"net/core/netdev_max_backlog", "800"},
	{"net/unix/max_dgram_qlen", "3000"},
	{"net/ipv4/tcp_retries2", "5"},
	{"net/ipv4/tcp_keepalive_time", "300"},
	{conntrackPrefix + "tcp_timeout_time_wait", "5"},
	{conntrackPrefix + "tcp_timeout_established", "900"},
	{"net/nf_conntrack_max", "3800"},
}

var normalSysctls = []Sysctl{
	{"net/core/netdev_max_backlog", "1000"},
	{"net/unix/max_dgram_qlen", "5000"},
	{"net/ipv4/tcp_retries2", "10"},
	{"net/ipv4/tcp_keepalive_time", "600"},
	{conntrackPrefix + "tcp_timeout_time_wait", "10"},
	{conntrackPrefix + "tcp_timeout_established", "1800"},
	{"net/nf_conntrack_max", "4800"},
}

var optimizedSysctls = []Sysctl{
	{"net/core/netdev_max_backlog", "1000"},
	{"net/unix/max_dgram_qlen", "5000"},
	{"net/ipv4/tcp_max_syn_backlog", "128"},
	{"net/ipv4/tcp_retries2", "10"},
	{"net/ipv4/tcp_fin_timeout", "15"},
	{"net/ipv4/tcp_keepalive_time", "600"},
	{conntrackPrefix + "tcp_timeout_time_wait", "10"},
	{conntrackPrefix + "tcp_timeout_established", "1800"},
	{conntrackPrefix + "udp_timeout", "15"},
	{conntrackPrefix + "udp_timeout_stream", "10"},
	{conntrackPrefix + "tcp_timeout_close", "20"},
	{"net/nf_conntrack_max", "4800"},
}

// Tuner applies network profiles by writing kernel parameters and, for the
// optimized profile, resetting the firewall to a single masquerade rule.
type Tuner struct {
	Runner Runner
	// Pace separates the commands of the normal profile.
	Pace   time.Duration
	Bridge string
	WAN    string
}

func NewTuner() *Tuner {
	return &Tuner{
		Runner: ExecRunner{},
		Pace:   defaultRestorePace,
		Bridge: defaultBridge,
		WAN:    defaultWAN,
	}
}

// ApplyNetworkProfile runs every command of the profile even if some fail.
// The returned error joins all failures.
func (t *Tuner) ApplyNetworkProfile(ctx context.Context, profile watchdog.Profile) error {
	switch profile {
	case watchdog.ProfileThrottled:
		return t.runAll(ctx, sysctlCommands(throttledSysctls), 0)
	case watchdog.ProfileNormal:
		return t.runAll(ctx, sysctlCommands(normalSysctls), t.Pace)
	case watchdog.ProfileOptimized:
		commands := t.firewallCommands(t.lanNetwork(ctx))
		commands = append(commands, sysctlCommands(optimizedSysctls)...)
		return t.runAll(ctx, commands, 0)
	default:
		return fmt.Errorf("unknown network profile %d", profile)
	}
}

func (t *Tuner) ClearPageCache(ctx context.Context) error {
	return shell(ctx, t.Runner, dropCachesCommand)
}

func (t *Tuner) runAll(ctx context.Context, commands []string, pace time.Duration) error {
	var errs []error
	for _, line := range commands {
		if pace > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(append(errs, ctx.Err())...)
			case <-time.After(pace):
			}
		}
		if err := shell(ctx, t.Runner, line); err != nil {
			log.Debug("Failed to adjust network parameter: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tuner) firewallCommands(network string) []string {
	return []string{
		"iptables -P INPUT ACCEPT",
		"iptables -P FORWARD ACCEPT",
		"iptables -P OUTPUT ACCEPT",
		"iptables -F -t filter",
		"iptables -F -t nat",
		fmt.Sprintf("iptables -t nat -A POSTROUTING -s %s -o %s -j MASQUERADE", network, t.WAN),
		"ip6tables -F",
	}
}

// lanNetwork finds the network routed on the bridge interface.
func (t *Tuner) lanNetwork(ctx context.Context) string {
	out, err := t.Runner.Run(ctx, "ip", "route", "show", "dev", t.Bridge)
	if err == nil {
		if network := parseRouteNetwork(string(out)); network != "" {
			log.Info("Found %s network: %s", t.Bridge, network)
			return network
		}
	}
	log.Warn("Could not determine %s network, using default %s", t.Bridge, defaultLANNetwork)
	return defaultLANNetwork
}

// parseRouteNetwork returns the first CIDR destination of "ip route" output,
// skipping link-local routes.
func parseRouteNetwork(out string) string {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		dest := fields[0]
		if !strings.Contains(dest, "/") || dest == defaultRouteKeyword || strings.HasPrefix(dest, linkLocalPrefix) {
			continue
		}
		return dest
	}
	return ""
}

func sysctlCommands(sysctls []Sysctl) []string {
	commands := make([]string, 0, len(sysctls))
	for _, s := range sysctls {
		commands = append(commands, s.command())
	}
	return commands
}

var _ watchdog.NetworkTuner = (*Tuner)(nil)
