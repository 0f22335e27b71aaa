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

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/21paradox/zxic-ping/pkg/log"
)

// DefaultPort is the UDP control port.
const DefaultPort = 1300

const readBufferSize = 64

// Listener receives control datagrams and posts commands to a Mailbox.
type Listener struct {
	conn    *net.UDPConn
	mailbox *Mailbox

	// OnCommand, when set, is called for every recognized payload.
	OnCommand func(cmd Command, src *net.UDPAddr)
}

// ListenPort binds the control port on all interfaces.
func ListenPort(port int, mailbox *Mailbox) (*Listener, error) {
	return Listen(net.JoinHostPort("0.0.0.0", strconv.Itoa(port)), mailbox)
}

// Listen binds addr. A bind failure is fatal for the watchdog.
func Listen(addr string, mailbox *Mailbox) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve control address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind control port %s: %w", addr, err)
	}
	return &Listener{conn: conn, mailbox: mailbox}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is done or the listener is closed.
func (l *Listener) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			continue
		}
		l.handle(buf[:n], src)
	}
}

func (l *Listener) handle(payload []byte, src *net.UDPAddr) {
	cmd, ok := Decode(payload)
	if !ok {
		return
	}

	if cmd == CommandNone {
		log.Info("Received ping from %s", src)
	} else {
		log.Info("Received %s request from %s", cmd, src)
		l.mailbox.Put(cmd)
	}
	if l.OnCommand != nil {
		l.OnCommand(cmd, src)
	}
	if _, err := l.conn.WriteToUDP([]byte(Ack), src); err != nil {
		log.Warn("Failed to acknowledge %s: %v", src, err)
	}
}

func (l *Listener) Close() error {
	return l.conn.Close()
}
