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

package notify

import (
	"fmt"
	"net"
	"time"

	"github.com/21paradox/zxic-ping/pkg/log"
)

const (
	DefaultTag          = "zxic"
	DefaultWriteTimeout = 2 * time.Second
)

// UDPNotifier sends best-effort text datagrams to the monitoring endpoint.
// Every message goes out on its own ephemeral socket and is never retried.
type UDPNotifier struct {
	Target       string
	Tag          string
	WriteTimeout time.Duration
}

func NewUDPNotifier(target, tag string) *UDPNotifier {
	return &UDPNotifier{Target: target, Tag: tag, WriteTimeout: DefaultWriteTimeout}
}

// Format prefixes message with the device tag.
func Format(tag, message string) string {
	if tag == "" {
		tag = DefaultTag
	}
	return fmt.Sprintf("[%s] %s", tag, message)
}

func (n *UDPNotifier) Notify(message string) {
	if err := n.send(Format(n.Tag, message)); err != nil {
		log.Warn("Failed to send UDP notification: %v", err)
		return
	}
	log.Debug("UDP notification sent: %s", message)
}

func (n *UDPNotifier) send(payload string) error {
	addr, err := net.ResolveUDPAddr("udp", n.Target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", n.Target, err)
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return fmt.Errorf("create UDP socket: %w", err)
	}
	defer conn.Close()

	timeout := n.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := conn.WriteTo([]byte(payload), addr); err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}
