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
)

// ServiceMessageBox is the message box of a request/response service:
// every request is tagged with the identity of the client that issued
// it, and every response carries the same tag back, so one physical box
// serves many logical clients.
type ServiceMessageBox[Req, Res Message] = SimpleMessageBox[Keyed[ClientID, Req], Keyed[ClientID, Res]]

// ConcurrentServiceMessageBox adds bounded parallel execution on top of
// a ServiceMessageBox: at most maxConcurrency requests are in flight at
// any instant, and completed responses are forwarded to their clients as
// they finish, possibly out of request order. Only per-client
// correlation through the ClientID is guaranteed.
//
// The box is owned by a single actor task: the in-flight bookkeeping is
// never touched from two tasks concurrently, so it needs no lock.
type ConcurrentServiceMessageBox[Req, Res Message] struct {
	maxConcurrency int
	clients        *ServiceMessageBox[Req, Res]
	completions    chan Keyed[ClientID, Res]
	pending        int
}

// enforce compilation error
var _ MessageBox[Keyed[ClientID, Message], Keyed[ClientID, Message]] = (*ConcurrentServiceMessageBox[Message, Message])(nil)

// NewConcurrentServiceMessageBox bounds the given service box to at most
// maxConcurrency concurrent requests.
func NewConcurrentServiceMessageBox[Req, Res Message](maxConcurrency int, clients *ServiceMessageBox[Req, Res]) *ConcurrentServiceMessageBox[Req, Res] {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ConcurrentServiceMessageBox[Req, Res]{
		maxConcurrency: maxConcurrency,
		clients:        clients,
		completions:    make(chan Keyed[ClientID, Res], maxConcurrency),
	}
}

// NewConcurrentServiceMessageBoxPair creates a concurrent service box
// alongside an associated raw client box. In practice the associated box
// is only useful for tests, since all requests and responses are
// multiplexed over it.
func NewConcurrentServiceMessageBoxPair[Req, Res Message](name string, maxConcurrency int) (*SimpleMessageBox[Keyed[ClientID, Res], Keyed[ClientID, Req]], *ConcurrentServiceMessageBox[Req, Res]) {
	clientBox, serviceBox := NewSimpleMessageBoxPair[Keyed[ClientID, Req], Keyed[ClientID, Res]](name, DefaultChannelCapacity)
	return clientBox, NewConcurrentServiceMessageBox(maxConcurrency, serviceBox)
}

// Recv returns the next client request to hand to the actor.
//
// While the number of in-flight computations is at the concurrency cap,
// no new request is pulled: the box first waits for one computation to
// complete and forwards its response. Below the cap, the arrival of a
// new request races against the completion of pending ones; completed
// responses are forwarded as they finish. Recv reports closure only
// once the client stream is closed and every pending response has been
// forwarded.
func (b *ConcurrentServiceMessageBox[Req, Res]) Recv(ctx context.Context) (Keyed[ClientID, Req], error) {
	var nothing Keyed[ClientID, Req]
	if err := b.awaitIdleProcessor(ctx); err != nil {
		return nothing, err
	}
	for {
		select {
		case request, ok := <-b.clients.input.C():
			if !ok {
				if err := b.drainPending(ctx); err != nil {
					return nothing, err
				}
				return nothing, newRecvError(b.Name())
			}
			b.clients.logInput(request)
			return request, nil
		case response := <-b.completions:
			b.pending--
			b.forward(ctx, response)
		case signal, ok := <-b.clients.signalChannel():
			if ok {
				b.clients.logInput(signal)
			}
			return nothing, ErrShutdownRequested
		case <-ctx.Done():
			return nothing, ctx.Err()
		}
	}
}

// Send forwards a response to the client it is tagged for.
func (b *ConcurrentServiceMessageBox[Req, Res]) Send(ctx context.Context, message Keyed[ClientID, Res]) error {
	return b.clients.Send(ctx, message)
}

// Name of the associated actor.
func (b *ConcurrentServiceMessageBox[Req, Res]) Name() string {
	return b.clients.Name()
}

// SetLogging turns the tracing of message transitions on or off.
func (b *ConcurrentServiceMessageBox[Req, Res]) SetLogging(on bool) {
	b.clients.SetLogging(on)
}

// Close closes the sending side of this box, so the clients observe
// that no more response will ever come.
func (b *ConcurrentServiceMessageBox[Req, Res]) Close() error {
	return b.clients.Close()
}

// MaxConcurrency returns the immutable concurrency cap of this box.
func (b *ConcurrentServiceMessageBox[Req, Res]) MaxConcurrency() int {
	return b.maxConcurrency
}

// SendResponseOnceDone registers an in-flight computation for the
// request of the given client. The computation runs on its own task; its
// response re-enters the completion race of Recv and is forwarded to the
// client once done. The caller must be the actor owning this box.
func (b *ConcurrentServiceMessageBox[Req, Res]) SendResponseOnceDone(ctx context.Context, client ClientID, compute func(context.Context) Res) {
	b.pending++
	go func() {
		b.completions <- Keyed[ClientID, Res]{Key: client, Message: compute(ctx)}
	}()
}

// awaitIdleProcessor suspends until the number of in-flight
// computations is below the concurrency cap, forwarding the responses
// that complete in the meantime.
func (b *ConcurrentServiceMessageBox[Req, Res]) awaitIdleProcessor(ctx context.Context) error {
	for b.pending >= b.maxConcurrency {
		select {
		case response := <-b.completions:
			b.pending--
			b.forward(ctx, response)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// drainPending forwards every response still in flight. Called once the
// client stream is closed, so that no accepted request is ever dropped.
func (b *ConcurrentServiceMessageBox[Req, Res]) drainPending(ctx context.Context) error {
	for b.pending > 0 {
		select {
		case response := <-b.completions:
			b.pending--
			b.forward(ctx, response)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// forward sends a completed response back to its client. A client that
// dropped its end in the meantime is not an error: the response is
// simply lost.
func (b *ConcurrentServiceMessageBox[Req, Res]) forward(ctx context.Context, response Keyed[ClientID, Res]) {
	_ = b.clients.Send(ctx, response)
}
