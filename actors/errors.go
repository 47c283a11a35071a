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
	"errors"
	"fmt"
)

var (
	// ErrClosedChannel is returned by a send when the receiving end of the
	// channel has been dropped, and by a recv once every sender has been
	// closed and the buffered messages are drained. Closure is terminal:
	// after the first closed recv, every later recv reports closed too.
	ErrClosedChannel = errors.New("the channel is closed")

	// ErrShutdownRequested is returned by a message box recv when a
	// RuntimeRequest shutdown signal has been delivered to the actor.
	// The actor is expected to wind down immediately.
	ErrShutdownRequested = errors.New("shutdown requested")

	// ErrMissingPeer is returned at build time when a required peer was
	// never connected. This is a wiring mistake, not a runtime condition.
	ErrMissingPeer = errors.New("no peer connected")

	// ErrUnknownRoute is returned by a strict SenderVec when a message is
	// addressed to an index no sender is registered for.
	ErrUnknownRoute = errors.New("no sender registered for the key")

	// ErrConfig is a runtime launch failure caused by an invalid configuration.
	ErrConfig = errors.New("configuration error")

	// ErrIO is a runtime failure caused by an I/O operation.
	ErrIO = errors.New("i/o error")

	// ErrSend is returned when the runtime cannot be reached because its
	// action channel is closed.
	ErrSend = errors.New("send failed: the runtime action channel is closed")

	// ErrRuntimePanic is returned by RunToCompletion when the runtime or
	// one of its spawned tasks terminated by panicking. A panic is a bug,
	// as opposed to a cooperative stop.
	ErrRuntimePanic = errors.New("a runtime task panicked")

	// ErrRuntimeCancellation is returned by RunToCompletion when the wait
	// itself is cancelled before the runtime has stopped.
	ErrRuntimeCancellation = errors.New("the runtime was cancelled")
)

// ChannelError reports a failed channel operation on a named box or
// channel. It unwraps to ErrClosedChannel so callers can match the
// condition with errors.Is without caring which box failed.
type ChannelError struct {
	// Name of the box or channel the operation failed on.
	Name string
	// Op is the failed operation, "send" or "recv".
	Op string
}

// enforce compilation error
var _ error = (*ChannelError)(nil)

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: %s failed: the channel is closed", e.Name, e.Op)
}

func (e *ChannelError) Unwrap() error {
	return ErrClosedChannel
}

func newSendError(name string) error {
	return &ChannelError{Name: name, Op: "send"}
}

func newRecvError(name string) error {
	return &ChannelError{Name: name, Op: "recv"}
}

// LinkError reports a builder that was asked to build while a required
// peer connection was still missing. It unwraps to ErrMissingPeer.
type LinkError struct {
	// Source is the component missing a peer.
	Source string
	// Role describes the missing connection, e.g. "sink".
	Role string
}

// enforce compilation error
var _ error = (*LinkError)(nil)

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s: no %s connected", e.Source, e.Role)
}

func (e *LinkError) Unwrap() error {
	return ErrMissingPeer
}
