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
	"errors"
)

// Task is a unit of work the runtime can spawn as an independently
// scheduled task.
type Task interface {
	// Name of the task, used for tracing and runtime events.
	Name() string
	// Run runs the task to completion.
	Run(ctx context.Context) error
}

// Actor is a long-lived unit of computation that consumes its message
// box in a single run-to-completion call: processing input messages,
// updating internal state, and sending messages to its peers, until the
// box reports closure. An actor never polls anything outside its box
// and its explicitly-held senders.
type Actor[MB any] interface {
	// Name of the actor.
	Name() string
	// Run processes the messages of the box until it reports closure.
	// It returns nil on clean exhaustion and a ChannelError when a
	// required peer has disappeared.
	Run(ctx context.Context, messages MB) error
}

// RunActor binds an actor to its message box as a runtime Task.
type RunActor[MB any] struct {
	actor    Actor[MB]
	messages MB
}

// enforce compilation error
var _ Task = (*RunActor[Message])(nil)

// NewRunActor pairs an actor with the box it will consume.
func NewRunActor[MB any](actor Actor[MB], messages MB) *RunActor[MB] {
	return &RunActor[MB]{actor: actor, messages: messages}
}

// Name of the underlying actor.
func (r *RunActor[MB]) Name() string {
	return r.actor.Name()
}

// Run runs the actor over its box.
func (r *RunActor[MB]) Run(ctx context.Context) error {
	return r.actor.Run(ctx, r.messages)
}

// Service handles requests one at a time, producing exactly one
// response per request. The surrounding actor deals with client
// multiplexing; the service only sees payloads.
type Service[Req, Res Message] interface {
	// Name of the service.
	Name() string
	// Handle computes the response of one request.
	Handle(ctx context.Context, request Req) Res
}

// ServiceActor runs a Service over a ServiceMessageBox, processing
// requests sequentially in arrival order.
type ServiceActor[Req, Res Message] struct {
	service Service[Req, Res]
}

// enforce compilation error
var _ Actor[*ServiceMessageBox[Message, Message]] = (*ServiceActor[Message, Message])(nil)

// NewServiceActor wraps a service into a sequential actor.
func NewServiceActor[Req, Res Message](service Service[Req, Res]) *ServiceActor[Req, Res] {
	return &ServiceActor[Req, Res]{service: service}
}

// Name of the underlying service.
func (a *ServiceActor[Req, Res]) Name() string {
	return a.service.Name()
}

// Run consumes requests until the box reports closure or a shutdown is
// requested. The box's sending side is closed on exit, so the clients
// observe that no more response will ever come.
func (a *ServiceActor[Req, Res]) Run(ctx context.Context, messages *ServiceMessageBox[Req, Res]) error {
	defer func() {
		_ = messages.Close()
	}()
	for {
		request, err := messages.Recv(ctx)
		if err != nil {
			return ignoreClosure(err)
		}
		response := a.service.Handle(ctx, request.Message)
		if err := messages.Send(ctx, Keyed[ClientID, Res]{Key: request.Key, Message: response}); err != nil {
			return err
		}
	}
}

// ConcurrentServiceActor runs a Service over a
// ConcurrentServiceMessageBox, handling up to the box's concurrency cap
// of requests in parallel.
type ConcurrentServiceActor[Req, Res Message] struct {
	service Service[Req, Res]
}

// enforce compilation error
var _ Actor[*ConcurrentServiceMessageBox[Message, Message]] = (*ConcurrentServiceActor[Message, Message])(nil)

// NewConcurrentServiceActor wraps a service into a concurrent actor.
func NewConcurrentServiceActor[Req, Res Message](service Service[Req, Res]) *ConcurrentServiceActor[Req, Res] {
	return &ConcurrentServiceActor[Req, Res]{service: service}
}

// Name of the underlying service.
func (a *ConcurrentServiceActor[Req, Res]) Name() string {
	return a.service.Name()
}

// Run consumes requests until the box reports closure, registering each
// one as an in-flight computation with the box. The box forwards each
// response to its client once the computation is done.
func (a *ConcurrentServiceActor[Req, Res]) Run(ctx context.Context, messages *ConcurrentServiceMessageBox[Req, Res]) error {
	defer func() {
		_ = messages.Close()
	}()
	for {
		request, err := messages.Recv(ctx)
		if err != nil {
			return ignoreClosure(err)
		}
		messages.SendResponseOnceDone(ctx, request.Key, func(ctx context.Context) Res {
			return a.service.Handle(ctx, request.Message)
		})
	}
}

// ignoreClosure keeps channel closure and cooperative shutdown out of an
// actor's error result: both are a normal way to stop.
func ignoreClosure(err error) error {
	if errors.Is(err, ErrClosedChannel) || errors.Is(err, ErrShutdownRequested) {
		return nil
	}
	return err
}
