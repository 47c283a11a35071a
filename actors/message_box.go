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

	"go.uber.org/atomic"

	"github.com/edgekit/edgekit/log"
)

// MessageBox is the mailbox a running actor owns: the actor collects
// all its input from it and forwards all its output through it.
//
// Recv reports closure with a ChannelError once every input sender has
// been dropped; this is the one unambiguous termination signal of an
// actor's main loop. Recv reports ErrShutdownRequested when a runtime
// shutdown signal has been delivered instead of a message.
type MessageBox[In, Out Message] interface {
	// Recv returns the next input message, suspending until one is
	// available.
	Recv(ctx context.Context) (In, error)
	// Send forwards an output message to the peers of this box. It fails
	// when no receiver expects these messages anymore.
	Send(ctx context.Context, message Out) error
	// Name of the associated actor.
	Name() string
	// SetLogging turns the tracing of message transitions on or off.
	SetLogging(on bool)
}

// SimpleMessageBox is the basic message box: one input mailbox, one
// output sender.
type SimpleMessageBox[In, Out Message] struct {
	name    string
	input   *Mailbox[In]
	signals *Mailbox[RuntimeRequest]
	output  Sender[Out]
	logging *atomic.Bool
	logger  log.Logger
}

// enforce compilation error
var _ MessageBox[Message, Message] = (*SimpleMessageBox[Message, Message])(nil)

// NewSimpleMessageBox creates a message box over the given input mailbox
// and output sender. Message tracing is on by default.
func NewSimpleMessageBox[In, Out Message](name string, input *Mailbox[In], output Sender[Out]) *SimpleMessageBox[In, Out] {
	return &SimpleMessageBox[In, Out]{
		name:    name,
		input:   input,
		output:  output,
		logging: atomic.NewBool(true),
		logger:  log.DefaultLogger,
	}
}

// NewSimpleMessageBoxPair creates a message box along an associated,
// mirrored box: everything sent from the associated box is received by
// the main box and vice versa. The associated box is typically handed to
// a test probe or to the single peer of the main box.
func NewSimpleMessageBoxPair[In, Out Message](name string, capacity int) (*SimpleMessageBox[Out, In], *SimpleMessageBox[In, Out]) {
	inputSender, inputMailbox := NewChannel[In](name, capacity)
	outputSender, outputMailbox := NewChannel[Out](name, capacity)
	mainBox := NewSimpleMessageBox(name, inputMailbox, Sender[Out](outputSender))
	associatedBox := NewSimpleMessageBox(name+"-Client", outputMailbox, Sender[In](inputSender))
	return associatedBox, mainBox
}

// Recv returns the next input message. It reports closure once every
// input sender has been dropped, and ErrShutdownRequested when the
// runtime asks the actor to stop.
func (b *SimpleMessageBox[In, Out]) Recv(ctx context.Context) (In, error) {
	var nothing In
	select {
	case message, ok := <-b.input.C():
		if !ok {
			return nothing, newRecvError(b.name)
		}
		b.logInput(message)
		return message, nil
	case signal, ok := <-b.signalChannel():
		if ok {
			b.logInput(signal)
		}
		return nothing, ErrShutdownRequested
	case <-ctx.Done():
		return nothing, ctx.Err()
	}
}

// Send forwards an output message to the peer of this box.
func (b *SimpleMessageBox[In, Out]) Send(ctx context.Context, message Out) error {
	b.logOutput(message)
	return b.output.Send(ctx, message)
}

// Name of the associated actor.
func (b *SimpleMessageBox[In, Out]) Name() string {
	return b.name
}

// SetLogging turns the tracing of message transitions on or off.
func (b *SimpleMessageBox[In, Out]) SetLogging(on bool) {
	b.logging.Store(on)
}

// SetLogger replaces the logger used for message tracing.
func (b *SimpleMessageBox[In, Out]) SetLogger(logger log.Logger) {
	b.logger = logger
}

// CloseOutput closes the sending side of this box, making the receiving
// end aware that no more message will be sent. The box keeps receiving.
func (b *SimpleMessageBox[In, Out]) CloseOutput() error {
	err := b.output.Close()
	b.output = NullSender[Out]{}
	return err
}

// Close closes the sending side of this box. Used by client boxes to
// signal the end of their input to the peer.
func (b *SimpleMessageBox[In, Out]) Close() error {
	return b.CloseOutput()
}

func (b *SimpleMessageBox[In, Out]) logInput(message any) {
	if b.logging.Load() {
		b.logger.Infof("%s: recv %v", b.name, message)
	}
}

func (b *SimpleMessageBox[In, Out]) logOutput(message any) {
	if b.logging.Load() {
		b.logger.Debugf("%s: send %v", b.name, message)
	}
}

// withSignals attaches the runtime signal mailbox. Set by builders
// before the box is handed to its actor.
func (b *SimpleMessageBox[In, Out]) withSignals(signals *Mailbox[RuntimeRequest]) {
	b.signals = signals
}

// signalChannel returns the raw signal stream, or a nil channel that
// never fires when no signal mailbox is attached.
func (b *SimpleMessageBox[In, Out]) signalChannel() <-chan RuntimeRequest {
	if b.signals == nil {
		return nil
	}
	return b.signals.C()
}
