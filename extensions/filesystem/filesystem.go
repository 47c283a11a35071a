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

// Package filesystem provides a directory watcher actor: peers register
// the directory they care about and receive an Event for every change
// under it.
package filesystem

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/edgekit/edgekit/actors"
	"github.com/edgekit/edgekit/log"
)

// EventKind tells what happened to the path of an Event.
type EventKind int

const (
	// Created reports a new file or directory.
	Created EventKind = iota
	// Modified reports a content or metadata change.
	Modified
	// Deleted reports a removal or a rename away.
	Deleted
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is one observed filesystem change.
type Event struct {
	Path string
	Kind EventKind
}

// watch pairs a watched directory with the peer consuming its events.
type watch struct {
	root   string
	sender actors.Sender[Event]
}

// Actor is the watcher itself: it owns the inotify handle for its whole
// run and dispatches each change to the peers watching that directory.
type Actor struct {
	watches []watch
	signals *actors.Mailbox[actors.RuntimeRequest]
	logger  log.Logger
}

// enforce compilation error
var _ actors.Task = (*Actor)(nil)

// Name of the actor.
func (*Actor) Name() string {
	return "FsWatcher"
}

// Run dispatches filesystem changes until a shutdown is requested or
// ctx ends.
func (a *Actor) Run(ctx context.Context) error {
	defer func() {
		for _, w := range a.watches {
			_ = w.sender.Close()
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, w := range a.watches {
		if err := watcher.Add(w.root); err != nil {
			return err
		}
	}

	for {
		select {
		case change, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			a.dispatch(ctx, change)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warnf("FsWatcher: %v", err)
		case <-a.signals.C():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch forwards one change to every peer watching the directory it
// happened under. A change no peer cares about is dropped.
func (a *Actor) dispatch(ctx context.Context, change fsnotify.Event) {
	kind, relevant := kindOf(change.Op)
	if !relevant {
		return
	}
	event := Event{Path: change.Name, Kind: kind}
	for _, w := range a.watches {
		if isUnder(w.root, change.Name) {
			_ = w.sender.Send(ctx, event)
		}
	}
}

func kindOf(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Deleted, true
	default:
		// chmod-only changes are noise for the consumers
		return 0, false
	}
}

func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Builder wires a watcher actor: each peer registers the directory it
// watches along its sink.
type Builder struct {
	watches       []watch
	signalSender  *actors.Address[actors.RuntimeRequest]
	signalMailbox *actors.Mailbox[actors.RuntimeRequest]
	logger        log.Logger
}

// enforce compilation error
var (
	_ actors.ActorBuilder                 = (*Builder)(nil)
	_ actors.MessageSource[Event, string] = (*Builder)(nil)
)

// NewBuilder prepares a watcher actor.
func NewBuilder() *Builder {
	signalSender, signalMailbox := actors.NewChannel[actors.RuntimeRequest]("FsWatcher-signals", 4)
	return &Builder{
		signalSender:  signalSender,
		signalMailbox: signalMailbox,
		logger:        log.DefaultLogger,
	}
}

// WithLogger sets the watcher logger.
func (b *Builder) WithLogger(logger log.Logger) *Builder {
	b.logger = logger
	return b
}

// ConnectSink registers a peer watching the given directory.
func (b *Builder) ConnectSink(directory string, peer actors.MessageSink[Event]) {
	b.watches = append(b.watches, watch{root: directory, sender: peer.GetSender()})
}

// GetSignalSender exposes the runtime signal capability of the actor.
func (b *Builder) GetSignalSender() actors.Sender[actors.RuntimeRequest] {
	return b.signalSender.Clone()
}

// TryBuildTask returns the watcher as a spawnable task, or a LinkError
// when no directory was ever registered.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	if len(b.watches) == 0 {
		return nil, &actors.LinkError{Source: "FsWatcher", Role: "sink"}
	}
	return &Actor{
		watches: b.watches,
		signals: b.signalMailbox,
		logger:  b.logger,
	}, nil
}
