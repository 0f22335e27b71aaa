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

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/21paradox/zxic-ping/pkg/log"
)

// DefaultTimeout bounds a single connect attempt.
const DefaultTimeout = 3 * time.Second

// ErrInvalidTarget marks a target endpoint that can never be dialed.
var ErrInvalidTarget = errors.New("invalid target endpoint")

var validate = validator.New()

// ValidateTarget checks a host:port endpoint once, before the watchdog loop starts.
func ValidateTarget(target string) error {
	host, port, err := net.SplitHostPort(target)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidTarget, target, err)
	}
	if host == "" {
		return fmt.Errorf("%w %q: empty host", ErrInvalidTarget, target)
	}
	if net.ParseIP(host) != nil {
		if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
			return fmt.Errorf("%w %q: bad port", ErrInvalidTarget, target)
		}
		return nil
	}
	if err := validate.Var(target, "required,hostname_port"); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidTarget, target, err)
	}
	return nil
}

// Result is the outcome of one connectivity check.
type Result struct {
	Success bool
	// Latency is only meaningful when Measured is true.
	Latency  time.Duration
	Measured bool
}

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober checks reachability of a target by opening a TCP connection.
type Prober struct {
	Target  string
	Timeout time.Duration
	Dial    DialFunc
}

func NewProber(target string) *Prober {
	return &Prober{Target: target, Timeout: DefaultTimeout}
}

// Probe dials the target once. The connection is closed right away.
func (p *Prober) Probe(ctx context.Context) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dial := p.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := dial(ctx, "tcp", p.Target)
	if err != nil {
		log.Warn("TCP connect to %s failed: %v", p.Target, err)
		return Result{}
	}
	elapsed := time.Since(start)
	_ = conn.Close()

	log.Debug("TCP connect to %s took %s", p.Target, elapsed)
	return Result{Success: true, Latency: elapsed, Measured: true}
}
