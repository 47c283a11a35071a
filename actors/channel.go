// MIT License
//
// Copyright (c) 2023-2026 EdgeKit Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actors

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// DefaultChannelCapacity is the capacity used for continuous message
// streams when none is given. Capacity is a backpressure knob: a full
// channel suspends its senders until the consumer catches up.
const DefaultChannelCapacity = 16

// channelCore is the state shared by every Address clone and the Mailbox
// of one bounded channel.
type channelCore[M Message] struct {
	name     string
	messages chan M
	dropped  chan struct{}
	senders  *atomic.Int32
}

// NewChannel creates a bounded FIFO channel and returns its two ends:
// the clonable sending end (Address) and the exclusively-owned receiving
// end (Mailbox). A non-positive capacity selects DefaultChannelCapacity.
//
// The channel reports closure to the receiver once every Address clone
// has been closed, and fails sends once the Mailbox has been closed.
func NewChannel[M Message](name string, capacity int) (*Address[M], *Mailbox[M]) {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	core := &channelCore[M]{
		name:     name,
		messages: make(chan M, capacity),
		dropped:  make(chan struct{}),
		senders:  atomic.NewInt32(1),
	}
	address := &Address[M]{core: core, closed: atomic.NewBool(false)}
	mailbox := &Mailbox[M]{core: core}
	return address, mailbox
}

// Address is the sending end of a bounded channel. Cloning an Address
// hands the same mailbox to another producer; the mailbox only observes
// closure once every clone has been closed.
type Address[M Message] struct {
	core      *channelCore[M]
	closed    *atomic.Bool
	closeOnce sync.Once
}

// enforce compilation error
var _ Sender[Message] = (*Address[Message])(nil)

// Name returns the name of the channel.
func (a *Address[M]) Name() string {
	return a.core.name
}

// Send delivers a message to the mailbox, suspending while the channel
// is full. It fails with a ChannelError when the receiver has dropped
// its end or this address has been closed, and with the context error
// when ctx ends first.
func (a *Address[M]) Send(ctx context.Context, message M) error {
	if a.closed.Load() {
		return newSendError(a.core.name)
	}
	select {
	case <-a.core.dropped:
		return newSendError(a.core.name)
	default:
	}
	select {
	case a.core.messages <- message:
		return nil
	case <-a.core.dropped:
		return newSendError(a.core.name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clone returns a new sending capability for the same mailbox.
//
// Cloning a closed address, or an address whose channel is already
// fully closed, yields a sender that fails fast: a dead channel is
// never resurrected.
func (a *Address[M]) Clone() Sender[M] {
	if a.closed.Load() {
		return &Address[M]{core: a.core, closed: atomic.NewBool(true)}
	}
	for {
		holders := a.core.senders.Load()
		if holders == 0 {
			return &Address[M]{core: a.core, closed: atomic.NewBool(true)}
		}
		if a.core.senders.CompareAndSwap(holders, holders+1) {
			return &Address[M]{core: a.core, closed: atomic.NewBool(false)}
		}
	}
}

// Close releases this clone of the address. Once the last clone is
// closed the mailbox drains its buffered messages and then reports
// closure. Close is idempotent per clone.
func (a *Address[M]) Close() error {
	a.closeOnce.Do(func() {
		if a.closed.Swap(true) {
			// this clone never held a share of the channel
			return
		}
		if a.core.senders.Dec() == 0 {
			close(a.core.messages)
		}
	})
	return nil
}

// Mailbox is the receiving end of a bounded channel, exclusively owned
// by a single consumer. Cloning an Address never clones mailbox
// ownership.
type Mailbox[M Message] struct {
	core     *channelCore[M]
	dropOnce sync.Once
}

// Name returns the name of the channel.
func (m *Mailbox[M]) Name() string {
	return m.core.name
}

// Recv returns the next message, suspending while the channel is empty
// but open. Once every sender has been closed, Recv drains the buffered
// messages in order and then reports closure with a ChannelError, once
// and forever after.
func (m *Mailbox[M]) Recv(ctx context.Context) (M, error) {
	var nothing M
	select {
	case message, ok := <-m.core.messages:
		if !ok {
			return nothing, newRecvError(m.core.name)
		}
		return message, nil
	case <-ctx.Done():
		return nothing, ctx.Err()
	}
}

// Close drops the receiving end. Producers still holding an address
// fail fast on their next send.
func (m *Mailbox[M]) Close() {
	m.dropOnce.Do(func() {
		close(m.core.dropped)
	})
}

// C exposes the raw message stream so that actors combining several
// event sources can select over it. A receive yields ok=false once the
// channel is closed and drained. Prefer Recv everywhere a plain receive
// is enough.
func (m *Mailbox[M]) C() <-chan M {
	return m.core.messages
}
