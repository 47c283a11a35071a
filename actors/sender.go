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

// Sender is the type-erased capability to send messages of type M.
// Actors depend on this capability, never on a concrete channel kind:
// any channel sender, routing or mapping adapter presents this shape.
//
// Clone hands the same capability to another producer. Close releases
// this producer's hold on the capability; the receiving end observes
// closure once every producer has closed.
type Sender[M Message] interface {
	// Send delivers one message. It suspends while the destination is at
	// capacity and fails with a ChannelError when nobody is listening
	// anymore.
	Send(ctx context.Context, message M) error
	// Clone returns a new handle on the same capability.
	Clone() Sender[M]
	// Close releases this handle.
	Close() error
}

// NullSender drops every message. It stands in for a peer that was
// deliberately not connected.
type NullSender[M Message] struct{}

// enforce compilation error
var _ Sender[Message] = NullSender[Message]{}

func (NullSender[M]) Send(ctx context.Context, message M) error {
	_, _ = ctx, message
	return nil
}

func (s NullSender[M]) Clone() Sender[M] {
	return s
}

func (NullSender[M]) Close() error {
	return nil
}

// MapSender adapts a Sender of B into a Sender of A, translating each
// message on the fly. It lets a producer of A feed a peer that consumes
// B without either knowing about the translation.
func MapSender[A, B Message](inner Sender[B], translate func(A) B) Sender[A] {
	return &mappingSender[A, B]{inner: inner, translate: translate}
}

type mappingSender[A, B Message] struct {
	inner     Sender[B]
	translate func(A) B
}

func (s *mappingSender[A, B]) Send(ctx context.Context, message A) error {
	return s.inner.Send(ctx, s.translate(message))
}

func (s *mappingSender[A, B]) Clone() Sender[A] {
	return &mappingSender[A, B]{inner: s.inner.Clone(), translate: s.translate}
}

func (s *mappingSender[A, B]) Close() error {
	return s.inner.Close()
}

// FanoutSender duplicates every message to all its peers. Peers are
// fixed at construction; a send failure on one peer does not prevent
// delivery to the others, the failures are aggregated instead.
type FanoutSender[M Message] struct {
	peers []Sender[M]
}

// enforce compilation error
var _ Sender[Message] = (*FanoutSender[Message])(nil)

// NewFanoutSender combines the given senders into one.
func NewFanoutSender[M Message](peers ...Sender[M]) *FanoutSender[M] {
	return &FanoutSender[M]{peers: peers}
}

func (s *FanoutSender[M]) Send(ctx context.Context, message M) error {
	var err error
	for _, peer := range s.peers {
		err = multierr.Append(err, peer.Send(ctx, message))
	}
	return err
}

func (s *FanoutSender[M]) Clone() Sender[M] {
	peers := make([]Sender[M], len(s.peers))
	for i, peer := range s.peers {
		peers[i] = peer.Clone()
	}
	return &FanoutSender[M]{peers: peers}
}

func (s *FanoutSender[M]) Close() error {
	var err error
	for _, peer := range s.peers {
		err = multierr.Append(err, peer.Close())
	}
	return err
}
