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

// Package health provides a health monitor actor speaking broker
// messages: it publishes an "up" status at startup, answers every
// health-check request with a fresh status, and leaves a "down" status
// behind when it stops.
package health

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/edgekit/edgekit/actors"
	"github.com/edgekit/edgekit/extensions/bridge"
)

// Config holds the health monitor settings.
type Config struct {
	// Service name reported in the status payload.
	Service string `yaml:"service"`
	// RequestSubject carries the inbound health-check requests.
	RequestSubject string `yaml:"request-subject"`
	// StatusSubject carries the outbound status publications.
	StatusSubject string `yaml:"status-subject"`
}

func (c Config) withDefaults() Config {
	if c.Service == "" {
		c.Service = "edgekit"
	}
	if c.RequestSubject == "" {
		c.RequestSubject = "edgekit.health.check"
	}
	if c.StatusSubject == "" {
		c.StatusSubject = "edgekit.health.status"
	}
	return c
}

// Status is the JSON payload published on the status subject.
type Status struct {
	Service string `json:"service"`
	Pid     int    `json:"pid"`
	Status  string `json:"status"`
	Time    int64  `json:"time"`
}

// Actor is the health monitor.
type Actor struct {
	config Config
}

// enforce compilation error
var _ actors.Actor[*actors.SimpleMessageBox[bridge.Message, bridge.Message]] = (*Actor)(nil)

// Name of the actor.
func (*Actor) Name() string {
	return "Health"
}

// Run publishes an "up" status, then a fresh one for every request,
// and an eventual "down" status on a cooperative stop.
func (a *Actor) Run(ctx context.Context, messages *actors.SimpleMessageBox[bridge.Message, bridge.Message]) error {
	defer func() {
		_ = messages.Close()
	}()

	if err := messages.Send(ctx, statusMessage(a.config, "up")); err != nil {
		return err
	}
	for {
		if _, err := messages.Recv(ctx); err != nil {
			// best effort: the broker end may already be gone
			_ = messages.Send(ctx, statusMessage(a.config, "down"))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if err := messages.Send(ctx, statusMessage(a.config, "up")); err != nil {
			return err
		}
	}
}

// statusMessage builds a retained status publication.
func statusMessage(config Config, status string) bridge.Message {
	payload, _ := json.Marshal(Status{
		Service: config.Service,
		Pid:     os.Getpid(),
		Status:  status,
		Time:    time.Now().Unix(),
	})
	return bridge.Message{Subject: config.StatusSubject, Payload: payload, Retain: true}
}

// Builder wires a health monitor actor.
type Builder struct {
	*actors.SimpleMessageBoxBuilder[bridge.Message, bridge.Message]
	config Config
}

// enforce compilation error
var _ actors.ActorBuilder = (*Builder)(nil)

// NewBuilder prepares a health monitor with the given settings.
func NewBuilder(config Config) *Builder {
	return &Builder{
		SimpleMessageBoxBuilder: actors.NewSimpleMessageBoxBuilder[bridge.Message, bridge.Message]("Health", actors.DefaultChannelCapacity),
		config:                  config.withDefaults(),
	}
}

// ConnectToBroker wires the monitor to a bridge: health-check requests
// flow in, status publications flow out, and the "down" status is
// registered as the bridge's last will.
func (b *Builder) ConnectToBroker(broker *bridge.Builder) {
	broker.ConnectSink(b.config.RequestSubject, b)
	b.ConnectSender(broker.GetSender())
	broker.WithLastWill(statusMessage(b.config, "down"))
}

// TryBuildTask binds the actor to its box as a spawnable task.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	box, err := b.TryBuild()
	if err != nil {
		return nil, err
	}
	return actors.NewRunActor[*actors.SimpleMessageBox[bridge.Message, bridge.Message]](&Actor{config: b.config}, box), nil
}
