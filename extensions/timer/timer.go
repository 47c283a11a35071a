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

// Package timer provides an actor that turns SetTimeout requests into
// Timeout events, fired in chronological order whatever the order the
// requests were submitted in.
package timer

import (
	"context"
	"errors"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/edgekit/edgekit/actors"
)

// SetTimeout asks the timer actor to send back the given event once the
// duration has elapsed.
type SetTimeout[T any] struct {
	Duration time.Duration
	Event    T
}

// Timeout is sent back when the duration of a SetTimeout has elapsed.
type Timeout[T any] struct {
	Event T
}

// pendingTimeout orders the scheduled timeouts by deadline.
type pendingTimeout[T any] struct {
	deadline time.Time
	event    T
}

func (p *pendingTimeout[T]) Compare(other queue.Item) int {
	o := other.(*pendingTimeout[T])
	switch {
	case p.deadline.Before(o.deadline):
		return -1
	case p.deadline.After(o.deadline):
		return 1
	default:
		return 0
	}
}

// Actor schedules timeouts on behalf of its peers.
//
// On end of input every pending timeout is still honored before the
// actor stops; a runtime shutdown request stops the actor immediately,
// discarding whatever is pending.
type Actor[T any] struct{}

// enforce compilation error
var _ actors.Actor[*actors.SimpleMessageBox[SetTimeout[int], Timeout[int]]] = (*Actor[int])(nil)

// New creates a timer actor for events of type T.
func New[T any]() *Actor[T] {
	return &Actor[T]{}
}

// Name of the actor.
func (*Actor[T]) Name() string {
	return "Timer"
}

// Run schedules and fires timeouts until the box reports closure.
func (a *Actor[T]) Run(ctx context.Context, messages *actors.SimpleMessageBox[SetTimeout[T], Timeout[T]]) error {
	defer func() {
		_ = messages.Close()
	}()

	pending := queue.NewPriorityQueue(16, true)
	defer pending.Dispose()

	for {
		recvCtx := ctx
		cancel := context.CancelFunc(func() {})
		if !pending.Empty() {
			next := pending.Peek().(*pendingTimeout[T])
			recvCtx, cancel = context.WithDeadline(ctx, next.deadline)
		}
		request, err := messages.Recv(recvCtx)
		cancel()
		switch {
		case err == nil:
			deadline := time.Now().Add(request.Duration)
			if qerr := pending.Put(&pendingTimeout[T]{deadline: deadline, event: request.Event}); qerr != nil {
				return qerr
			}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// the next scheduled timeout has elapsed
			if err := a.fireElapsed(ctx, messages, pending); err != nil {
				return err
			}
		case errors.Is(err, actors.ErrShutdownRequested):
			// stop right away, pending timeouts are discarded
			return nil
		case errors.Is(err, actors.ErrClosedChannel):
			// no more request will come: honor what is already scheduled
			return a.drain(ctx, messages, pending)
		default:
			return err
		}
	}
}

// fireElapsed sends a Timeout for every scheduled entry whose deadline
// has passed, in chronological order.
func (a *Actor[T]) fireElapsed(ctx context.Context, messages *actors.SimpleMessageBox[SetTimeout[T], Timeout[T]], pending *queue.PriorityQueue) error {
	now := time.Now()
	for !pending.Empty() {
		next := pending.Peek().(*pendingTimeout[T])
		if next.deadline.After(now) {
			return nil
		}
		items, err := pending.Get(1)
		if err != nil {
			return err
		}
		elapsed := items[0].(*pendingTimeout[T])
		if err := messages.Send(ctx, Timeout[T]{Event: elapsed.event}); err != nil {
			return err
		}
	}
	return nil
}

// drain waits for and fires every pending timeout, in chronological
// order.
func (a *Actor[T]) drain(ctx context.Context, messages *actors.SimpleMessageBox[SetTimeout[T], Timeout[T]], pending *queue.PriorityQueue) error {
	for !pending.Empty() {
		items, err := pending.Get(1)
		if err != nil {
			return err
		}
		next := items[0].(*pendingTimeout[T])
		if wait := time.Until(next.deadline); wait > 0 {
			ticker := time.NewTimer(wait)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				ticker.Stop()
				return ctx.Err()
			}
		}
		if err := messages.Send(ctx, Timeout[T]{Event: next.event}); err != nil {
			return err
		}
	}
	return nil
}

// Builder wires a timer actor: peers send their SetTimeout requests
// through GetSender and receive the Timeout events on their connected
// sinks.
type Builder[T any] struct {
	*actors.SimpleMessageBoxBuilder[SetTimeout[T], Timeout[T]]
}

// enforce compilation error
var _ actors.ActorBuilder = (*Builder[int])(nil)

// NewBuilder prepares a timer actor.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		SimpleMessageBoxBuilder: actors.NewSimpleMessageBoxBuilder[SetTimeout[T], Timeout[T]]("Timer", actors.DefaultChannelCapacity),
	}
}

// TryBuildTask binds the actor to its box as a spawnable task.
func (b *Builder[T]) TryBuildTask() (actors.Task, error) {
	box, err := b.TryBuild()
	if err != nil {
		return nil, err
	}
	return actors.NewRunActor[*actors.SimpleMessageBox[SetTimeout[T], Timeout[T]]](New[T](), box), nil
}
