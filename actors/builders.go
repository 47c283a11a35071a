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

// NoConfig is the connection config of sources that need none.
type NoConfig struct{}

// Builder assembles a component that must be fully connected before the
// system starts. TryBuild reports wiring mistakes such as a missing
// peer; Build falls back to a null peer instead.
type Builder[T any] interface {
	TryBuild() (T, error)
	Build() T
}

// MessageSink is a component that consumes messages of type M. It
// exposes its inbound capability so sources can connect to it.
type MessageSink[M Message] interface {
	GetSender() Sender[M]
}

// MessageSource is a component that produces messages of type M.
// Connecting a sink registers it as a downstream consumer, with a
// source-specific config (e.g. a subscription filter).
type MessageSource[M Message, Config any] interface {
	ConnectSink(config Config, peer MessageSink[M])
}

// ServiceProvider is a request/response service a consumer can connect
// to: the provider registers the consumer's response sender, assigns it
// a client identity, and returns the sender the consumer must use to
// submit its requests.
type ServiceProvider[Req, Res Message, Config any] interface {
	ConnectConsumer(config Config, responses Sender[Res]) Sender[Req]
}

// RuntimeRequestSink is exposed by every long-running builder so the
// runtime can deliver a cooperative shutdown notice to the actor.
type RuntimeRequestSink interface {
	GetSignalSender() Sender[RuntimeRequest]
}

// SinkOf wraps a bare sender as a MessageSink.
func SinkOf[M Message](sender Sender[M]) MessageSink[M] {
	return senderSink[M]{sender: sender}
}

type senderSink[M Message] struct {
	sender Sender[M]
}

func (s senderSink[M]) GetSender() Sender[M] {
	return s.sender.Clone()
}

// SimpleMessageBoxBuilder wires a SimpleMessageBox: peers connect to its
// input through GetSender, its output is connected to one or more sinks,
// and the runtime connects to its signal channel.
type SimpleMessageBoxBuilder[In, Out Message] struct {
	name          string
	inputSender   *Address[In]
	inputMailbox  *Mailbox[In]
	signalSender  *Address[RuntimeRequest]
	signalMailbox *Mailbox[RuntimeRequest]
	output        Sender[Out]
}

// enforce compilation error
var (
	_ Builder[*SimpleMessageBox[Message, Message]] = (*SimpleMessageBoxBuilder[Message, Message])(nil)
	_ MessageSink[Message]                         = (*SimpleMessageBoxBuilder[Message, Message])(nil)
	_ MessageSource[Message, NoConfig]             = (*SimpleMessageBoxBuilder[Message, Message])(nil)
	_ RuntimeRequestSink                           = (*SimpleMessageBoxBuilder[Message, Message])(nil)
)

// NewSimpleMessageBoxBuilder prepares a SimpleMessageBox with the given
// input capacity.
func NewSimpleMessageBoxBuilder[In, Out Message](name string, capacity int) *SimpleMessageBoxBuilder[In, Out] {
	inputSender, inputMailbox := NewChannel[In](name, capacity)
	signalSender, signalMailbox := NewChannel[RuntimeRequest](name+"-signals", 4)
	return &SimpleMessageBoxBuilder[In, Out]{
		name:          name,
		inputSender:   inputSender,
		inputMailbox:  inputMailbox,
		signalSender:  signalSender,
		signalMailbox: signalMailbox,
	}
}

// GetSender exposes the inbound capability of the box under construction.
func (b *SimpleMessageBoxBuilder[In, Out]) GetSender() Sender[In] {
	return b.inputSender.Clone()
}

// GetSignalSender exposes the runtime signal capability of the box.
func (b *SimpleMessageBoxBuilder[In, Out]) GetSignalSender() Sender[RuntimeRequest] {
	return b.signalSender.Clone()
}

// ConnectSink registers a downstream consumer of the box's output.
// Connecting several sinks fans the output out to all of them.
func (b *SimpleMessageBoxBuilder[In, Out]) ConnectSink(_ NoConfig, peer MessageSink[Out]) {
	b.ConnectSender(peer.GetSender())
}

// ConnectSender registers a bare sender as a downstream consumer.
func (b *SimpleMessageBoxBuilder[In, Out]) ConnectSender(sender Sender[Out]) {
	if b.output == nil {
		b.output = sender
		return
	}
	b.output = NewFanoutSender(b.output, sender)
}

// TryBuild returns the box, or a LinkError when no sink was connected.
func (b *SimpleMessageBoxBuilder[In, Out]) TryBuild() (*SimpleMessageBox[In, Out], error) {
	if b.output == nil {
		return nil, &LinkError{Source: b.name, Role: "sink"}
	}
	return b.assemble(b.output), nil
}

// Build returns the box, sending its output nowhere when no sink was
// connected.
func (b *SimpleMessageBoxBuilder[In, Out]) Build() *SimpleMessageBox[In, Out] {
	output := b.output
	if output == nil {
		output = NullSender[Out]{}
	}
	return b.assemble(output)
}

func (b *SimpleMessageBoxBuilder[In, Out]) assemble(output Sender[Out]) *SimpleMessageBox[In, Out] {
	box := NewSimpleMessageBox(b.name, b.inputMailbox, output)
	box.withSignals(b.signalMailbox)
	// Only the peers hold input senders from now on: the box observes
	// closure once they are all gone.
	_ = b.inputSender.Close()
	return box
}

// ServiceMessageBoxBuilder wires the message box of a request/response
// service: each consumer connection registers the consumer's response
// sender and hands back a request sender tagged with the consumer's
// ClientID.
type ServiceMessageBoxBuilder[Req, Res Message] struct {
	name           string
	requestSender  *Address[Keyed[ClientID, Req]]
	requestMailbox *Mailbox[Keyed[ClientID, Req]]
	signalSender   *Address[RuntimeRequest]
	signalMailbox  *Mailbox[RuntimeRequest]
	clients        []Sender[Res]
	policy         RoutePolicy
}

// enforce compilation error
var (
	_ Builder[*ServiceMessageBox[Message, Message]] = (*ServiceMessageBoxBuilder[Message, Message])(nil)
	_ ServiceProvider[Message, Message, NoConfig]   = (*ServiceMessageBoxBuilder[Message, Message])(nil)
	_ RuntimeRequestSink                            = (*ServiceMessageBoxBuilder[Message, Message])(nil)
)

// NewServiceMessageBoxBuilder prepares a service box with the given
// request capacity.
func NewServiceMessageBoxBuilder[Req, Res Message](name string, capacity int) *ServiceMessageBoxBuilder[Req, Res] {
	requestSender, requestMailbox := NewChannel[Keyed[ClientID, Req]](name, capacity)
	signalSender, signalMailbox := NewChannel[RuntimeRequest](name+"-signals", 4)
	return &ServiceMessageBoxBuilder[Req, Res]{
		name:           name,
		requestSender:  requestSender,
		requestMailbox: requestMailbox,
		signalSender:   signalSender,
		signalMailbox:  signalMailbox,
	}
}

// WithRoutePolicy sets what happens to responses tagged for an unknown
// client. The default silently drops them.
func (b *ServiceMessageBoxBuilder[Req, Res]) WithRoutePolicy(policy RoutePolicy) *ServiceMessageBoxBuilder[Req, Res] {
	b.policy = policy
	return b
}

// ConnectConsumer registers a new client of the service and returns the
// sender the client submits its requests with. Each request is tagged
// with the client's identity so the response finds its way back.
func (b *ServiceMessageBoxBuilder[Req, Res]) ConnectConsumer(_ NoConfig, responses Sender[Res]) Sender[Req] {
	id := ClientID(len(b.clients))
	b.clients = append(b.clients, responses)
	return NewKeyedSender(id, Sender[Keyed[ClientID, Req]](b.requestSender.Clone()))
}

// GetSignalSender exposes the runtime signal capability of the box.
func (b *ServiceMessageBoxBuilder[Req, Res]) GetSignalSender() Sender[RuntimeRequest] {
	return b.signalSender.Clone()
}

// TryBuild returns the service box, or a LinkError when no consumer was
// ever connected.
func (b *ServiceMessageBoxBuilder[Req, Res]) TryBuild() (*ServiceMessageBox[Req, Res], error) {
	if len(b.clients) == 0 {
		return nil, &LinkError{Source: b.name, Role: "consumer"}
	}
	return b.Build(), nil
}

// Build returns the service box.
func (b *ServiceMessageBoxBuilder[Req, Res]) Build() *ServiceMessageBox[Req, Res] {
	clients := make([]Sender[Res], len(b.clients))
	copy(clients, b.clients)
	output := NewSenderVec(clients, b.policy)
	box := NewSimpleMessageBox(b.name, b.requestMailbox, Sender[Keyed[ClientID, Res]](output))
	box.withSignals(b.signalMailbox)
	_ = b.requestSender.Close()
	return box
}

// BuildConcurrent returns the service box bounded to at most
// maxConcurrency in-flight requests.
func (b *ServiceMessageBoxBuilder[Req, Res]) BuildConcurrent(maxConcurrency int) *ConcurrentServiceMessageBox[Req, Res] {
	return NewConcurrentServiceMessageBox(maxConcurrency, b.Build())
}

// TryBuildConcurrent returns the concurrency-bounded service box, or a
// LinkError when no consumer was ever connected.
func (b *ServiceMessageBoxBuilder[Req, Res]) TryBuildConcurrent(maxConcurrency int) (*ConcurrentServiceMessageBox[Req, Res], error) {
	if len(b.clients) == 0 {
		return nil, &LinkError{Source: b.name, Role: "consumer"}
	}
	return b.BuildConcurrent(maxConcurrency), nil
}
