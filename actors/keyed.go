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

	"go.uber.org/multierr"
)

// KeyedSender tags every message with a fixed key on the fly, so that a
// shared mailbox expecting Keyed[K, M] can tell where each message came
// from while the producer keeps sending plain M values.
type KeyedSender[K comparable, M Message] struct {
	key     K
	address Sender[Keyed[K, M]]
}

// enforce compilation error
var _ Sender[Message] = (*KeyedSender[int, Message])(nil)

// NewKeyedSender wraps the address of a shared mailbox with a fixed key.
func NewKeyedSender[K comparable, M Message](key K, address Sender[Keyed[K, M]]) *KeyedSender[K, M] {
	return &KeyedSender[K, M]{key: key, address: address}
}

func (s *KeyedSender[K, M]) Send(ctx context.Context, message M) error {
	return s.address.Send(ctx, Keyed[K, M]{Key: s.key, Message: message})
}

func (s *KeyedSender[K, M]) Clone() Sender[M] {
	return &KeyedSender[K, M]{key: s.key, address: s.address.Clone()}
}

func (s *KeyedSender[K, M]) Close() error {
	return s.address.Close()
}

// RoutePolicy states what a SenderVec does with a message addressed to
// an index no sender is registered for.
type RoutePolicy int

const (
	// DropUnknownRoutes silently drops the message. The message is lost,
	// other indices are unaffected.
	DropUnknownRoutes RoutePolicy = iota
	// FailUnknownRoutes makes the send fail with ErrUnknownRoute.
	FailUnknownRoutes
)

// SenderVec is the dual of KeyedSender: it owns a list of senders
// indexed 0..N and dispatches each Keyed message to the sender its key
// selects, stripping the key in the process.
type SenderVec[M Message] struct {
	senders []Sender[M]
	policy  RoutePolicy
}

// enforce compilation error
var _ Sender[Keyed[ClientID, Message]] = (*SenderVec[Message])(nil)

// NewSenderVec builds a keyed dispatcher over the given senders.
func NewSenderVec[M Message](senders []Sender[M], policy RoutePolicy) *SenderVec[M] {
	return &SenderVec[M]{senders: senders, policy: policy}
}

func (s *SenderVec[M]) Send(ctx context.Context, message Keyed[ClientID, M]) error {
	idx := int(message.Key)
	if idx < 0 || idx >= len(s.senders) {
		if s.policy == FailUnknownRoutes {
			return ErrUnknownRoute
		}
		return nil
	}
	return s.senders[idx].Send(ctx, message.Message)
}

func (s *SenderVec[M]) Clone() Sender[Keyed[ClientID, M]] {
	senders := make([]Sender[M], len(s.senders))
	for i, sender := range s.senders {
		senders[i] = sender.Clone()
	}
	return &SenderVec[M]{senders: senders, policy: s.policy}
}

func (s *SenderVec[M]) Close() error {
	var err error
	for _, sender := range s.senders {
		err = multierr.Append(err, sender.Close())
	}
	return err
}
