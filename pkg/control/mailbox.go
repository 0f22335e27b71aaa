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

import "sync/atomic"

// Mailbox is a single-slot cell shared by the listener and the scheduler.
// A Put before the previous command was taken replaces it.
type Mailbox struct {
	slot atomic.Uint32
}

func (m *Mailbox) Put(cmd Command) {
	m.slot.Store(uint32(cmd))
}

// Take returns the pending command and leaves the slot empty.
func (m *Mailbox) Take() Command {
	return Command(m.slot.Swap(uint32(CommandNone)))
}

// Peek reports the pending command without consuming it.
func (m *Mailbox) Peek() Command {
	return Command(m.slot.Load())
}
