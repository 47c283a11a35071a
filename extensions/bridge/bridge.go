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

// Package bridge connects the in-process actors to a NATS broker: peers
// register subject filters and receive the matching broker messages,
// while everything they send through the bridge is published.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"

	"github.com/edgekit/edgekit/actors"
	"github.com/edgekit/edgekit/log"
)

// Config holds the broker connection settings.
type Config struct {
	// URL of the broker, e.g. nats://127.0.0.1:4222.
	URL string `yaml:"url"`
	// Name identifies this connection on the broker. Optional.
	Name string `yaml:"name"`
	// ConnectRetries bounds how many times the initial connection is
	// attempted before the actor gives up.
	ConnectRetries int `yaml:"connect-retries"`
	// ConnectMaxDelay caps the backoff between connection attempts.
	ConnectMaxDelay time.Duration `yaml:"connect-max-delay"`
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "edgekit-bridge"
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 5
	}
	if c.ConnectMaxDelay <= 0 {
		c.ConnectMaxDelay = 2 * time.Second
	}
	return c
}

// Message is one broker message. Retain is a hint for brokers with
// message retention; core NATS publishes it as a regular message.
type Message struct {
	Subject string
	Payload []byte
	Retain  bool
}

// String implements fmt.Stringer, for message tracing.
func (m Message) String() string {
	return fmt.Sprintf("%s %s", m.Subject, m.Payload)
}

// subscription pairs a subject filter with the peer consuming the
// matching messages.
type subscription struct {
	filter string
	sender actors.Sender[Message]
}

// Actor is the bridge itself: it owns the broker connection for its
// whole run.
type Actor struct {
	config   Config
	subs     []subscription
	lastWill *Message
	logger   log.Logger
}

// enforce compilation error
var _ actors.Actor[*actors.SimpleMessageBox[Message, actors.NoMessage]] = (*Actor)(nil)

// Name of the actor.
func (*Actor) Name() string {
	return "Bridge"
}

// Run connects to the broker, installs the peer subscriptions, then
// publishes every message received from its box. On a cooperative stop
// the last-will message, when configured, is published before the
// connection goes down.
func (a *Actor) Run(ctx context.Context, messages *actors.SimpleMessageBox[Message, actors.NoMessage]) error {
	conn, err := a.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: connecting to %s: %v", actors.ErrIO, a.config.URL, err)
	}

	for _, sub := range a.subs {
		sender := sub.sender
		if _, err := conn.Subscribe(sub.filter, func(msg *nats.Msg) {
			_ = sender.Send(ctx, Message{Subject: msg.Subject, Payload: msg.Data})
		}); err != nil {
			conn.Close()
			return fmt.Errorf("%w: subscribing to %s: %v", actors.ErrIO, sub.filter, err)
		}
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", actors.ErrIO, err)
	}
	a.logger.Infof("Bridge: connected to %s with %d subscriptions", a.config.URL, len(a.subs))

	var runErr error
	for {
		message, err := messages.Recv(ctx)
		if err != nil {
			if !isCleanStop(err) {
				runErr = err
			}
			break
		}
		if err := conn.Publish(message.Subject, message.Payload); err != nil {
			runErr = fmt.Errorf("%w: publishing to %s: %v", actors.ErrIO, message.Subject, err)
			break
		}
	}

	if runErr == nil && a.lastWill != nil {
		_ = conn.Publish(a.lastWill.Subject, a.lastWill.Payload)
	}
	_ = conn.Flush()
	conn.Close()
	for _, sub := range a.subs {
		_ = sub.sender.Close()
	}
	return runErr
}

// connect dials the broker, retrying with backoff: on startup the broker
// may well not be up yet.
func (a *Actor) connect(ctx context.Context) (*nats.Conn, error) {
	var conn *nats.Conn
	retrier := retry.NewRetrier(a.config.ConnectRetries, 100*time.Millisecond, a.config.ConnectMaxDelay)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		conn, err = nats.Connect(a.config.URL, nats.Name(a.config.Name))
		return err
	})
	return conn, err
}

// isCleanStop tells a normal end of life apart from a failure.
func isCleanStop(err error) bool {
	return errors.Is(err, actors.ErrClosedChannel) || errors.Is(err, actors.ErrShutdownRequested)
}

// Builder wires a bridge actor: producers get the publish capability
// with GetSender, consumers register their subject filter with
// ConnectSink.
type Builder struct {
	*actors.SimpleMessageBoxBuilder[Message, actors.NoMessage]
	config   Config
	subs     []subscription
	lastWill *Message
	logger   log.Logger
}

// enforce compilation error
var (
	_ actors.ActorBuilder                   = (*Builder)(nil)
	_ actors.MessageSource[Message, string] = (*Builder)(nil)
)

// NewBuilder prepares a bridge actor for the given broker.
func NewBuilder(config Config) *Builder {
	return &Builder{
		SimpleMessageBoxBuilder: actors.NewSimpleMessageBoxBuilder[Message, actors.NoMessage]("Bridge", actors.DefaultChannelCapacity),
		config:                  config.withDefaults(),
		logger:                  log.DefaultLogger,
	}
}

// WithLogger sets the bridge logger.
func (b *Builder) WithLogger(logger log.Logger) *Builder {
	b.logger = logger
	return b
}

// WithLastWill registers a message published when the bridge stops,
// after the last outbound message.
func (b *Builder) WithLastWill(message Message) *Builder {
	b.lastWill = &message
	return b
}

// ConnectSink registers a peer consuming the broker messages matching
// the given subject filter.
func (b *Builder) ConnectSink(filter string, peer actors.MessageSink[Message]) {
	b.subs = append(b.subs, subscription{filter: filter, sender: peer.GetSender()})
}

// TryBuildTask binds the bridge actor to its box as a spawnable task.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	actor := &Actor{
		config:   b.config,
		subs:     b.subs,
		lastWill: b.lastWill,
		logger:   b.logger,
	}
	box := b.Build()
	box.SetLogger(b.logger)
	return actors.NewRunActor[*actors.SimpleMessageBox[Message, actors.NoMessage]](actor, box), nil
}
