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

// Package cron provides an actor emitting Tick events on cron
// schedules registered at build time.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"

	"github.com/edgekit/edgekit/actors"
	"github.com/edgekit/edgekit/log"
)

// Schedule names one cron expression. Expressions use the quartz
// format, seconds included, e.g. "0 */5 * * * *".
type Schedule struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Tick is emitted every time one of the schedules fires.
type Tick struct {
	Name    string
	FiredAt time.Time
}

// String implements fmt.Stringer, for message tracing.
func (t Tick) String() string {
	return fmt.Sprintf("%s @ %s", t.Name, t.FiredAt.Format(time.RFC3339))
}

// entry is a schedule with its parsed trigger.
type entry struct {
	name    string
	trigger quartz.Trigger
}

// Actor emits the ticks of its schedules until shut down.
type Actor struct {
	entries []entry
	output  actors.Sender[Tick]
	signals *actors.Mailbox[actors.RuntimeRequest]
	logger  log.Logger
}

// enforce compilation error
var _ actors.Task = (*Actor)(nil)

// Name of the actor.
func (*Actor) Name() string {
	return "Cron"
}

// Run schedules every entry on a quartz scheduler and emits a Tick each
// time one fires, until a shutdown is requested or ctx ends.
func (a *Actor) Run(ctx context.Context) error {
	defer func() {
		_ = a.output.Close()
	}()

	scheduler, err := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return err
	}
	scheduler.Start(ctx)

	for _, e := range a.entries {
		name := e.name
		tick := job.NewFunctionJob[bool](
			func(ctx context.Context) (bool, error) {
				err := a.output.Send(ctx, Tick{Name: name, FiredAt: time.Now()})
				return err == nil, err
			},
		)
		detail := quartz.NewJobDetail(tick, quartz.NewJobKey(name))
		if err := scheduler.ScheduleJob(detail, e.trigger); err != nil {
			return err
		}
	}
	a.logger.Infof("Cron: %d schedules armed", len(a.entries))

	var runErr error
	select {
	case <-a.signals.C():
	case <-ctx.Done():
		runErr = ctx.Err()
	}

	_ = scheduler.Clear()
	scheduler.Stop()
	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	scheduler.Wait(waitCtx)
	cancel()
	return runErr
}

// Builder wires a cron actor: schedules are declared up front, every
// connected sink receives every tick.
type Builder struct {
	schedules     []Schedule
	output        actors.Sender[Tick]
	signalSender  *actors.Address[actors.RuntimeRequest]
	signalMailbox *actors.Mailbox[actors.RuntimeRequest]
	location      *time.Location
	logger        log.Logger
}

// enforce compilation error
var (
	_ actors.ActorBuilder                         = (*Builder)(nil)
	_ actors.MessageSource[Tick, actors.NoConfig] = (*Builder)(nil)
)

// NewBuilder prepares a cron actor with the given schedules,
// interpreted in UTC.
func NewBuilder(schedules ...Schedule) *Builder {
	signalSender, signalMailbox := actors.NewChannel[actors.RuntimeRequest]("Cron-signals", 4)
	return &Builder{
		schedules:     schedules,
		signalSender:  signalSender,
		signalMailbox: signalMailbox,
		location:      time.UTC,
		logger:        log.DefaultLogger,
	}
}

// WithLocation sets the timezone the cron expressions are evaluated in.
func (b *Builder) WithLocation(location *time.Location) *Builder {
	b.location = location
	return b
}

// WithLogger sets the cron actor logger.
func (b *Builder) WithLogger(logger log.Logger) *Builder {
	b.logger = logger
	return b
}

// ConnectSink registers a peer consuming the ticks. Connecting several
// sinks fans the ticks out to all of them.
func (b *Builder) ConnectSink(_ actors.NoConfig, peer actors.MessageSink[Tick]) {
	b.ConnectSender(peer.GetSender())
}

// ConnectSender registers a bare sender as a tick consumer.
func (b *Builder) ConnectSender(sender actors.Sender[Tick]) {
	if b.output == nil {
		b.output = sender
		return
	}
	b.output = actors.NewFanoutSender(b.output, sender)
}

// GetSignalSender exposes the runtime signal capability of the actor.
func (b *Builder) GetSignalSender() actors.Sender[actors.RuntimeRequest] {
	return b.signalSender.Clone()
}

// TryBuildTask parses every schedule and returns the actor as a
// spawnable task. An invalid cron expression is a configuration error;
// a missing sink is a wiring one.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	if b.output == nil {
		return nil, &actors.LinkError{Source: "Cron", Role: "sink"}
	}
	entries := make([]entry, 0, len(b.schedules))
	for _, schedule := range b.schedules {
		trigger, err := quartz.NewCronTriggerWithLoc(schedule.Expr, b.location)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %s: %v", actors.ErrConfig, schedule.Name, err)
		}
		entries = append(entries, entry{name: schedule.Name, trigger: trigger})
	}
	return &Actor{
		entries: entries,
		output:  b.output,
		signals: b.signalMailbox,
		logger:  b.logger,
	}, nil
}
