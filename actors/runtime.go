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
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/edgekit/edgekit/log"
)

const (
	// DefaultActionCapacity is the capacity of the runtime's internal
	// action channel.
	DefaultActionCapacity = 16

	// DefaultShutdownTimeout bounds how long the runtime waits for its
	// tasks after a shutdown has been requested, before cancelling the
	// stragglers.
	DefaultShutdownTimeout = 60 * time.Second
)

// RuntimeRequest is a request sent by the runtime to actors.
type RuntimeRequest int

const (
	// ShutdownRequest asks an actor to stop on its own terms.
	ShutdownRequest RuntimeRequest = iota
)

// String implements fmt.Stringer.
func (r RuntimeRequest) String() string {
	if r == ShutdownRequest {
		return "Shutdown"
	}
	return fmt.Sprintf("RuntimeRequest(%d)", int(r))
}

// RuntimeAction is a command sent by actors to the runtime. An action is
// created through a RuntimeHandle, consumed exactly once by the
// runtime's internal loop, then dropped.
type RuntimeAction interface {
	fmt.Stringer
	isRuntimeAction()
}

// Spawn asks the runtime to launch a task as an independently scheduled
// unit of concurrency. Signals, when not nil, is how the runtime will
// deliver a cooperative shutdown notice to the task.
type Spawn struct {
	Task    Task
	Signals Sender[RuntimeRequest]
}

func (Spawn) isRuntimeAction() {}

func (a Spawn) String() string {
	return "Spawn(" + a.Task.Name() + ")"
}

// Shutdown asks the runtime to stop all its tasks and then itself.
type Shutdown struct{}

func (Shutdown) isRuntimeAction() {}

func (Shutdown) String() string {
	return "Shutdown"
}

// RuntimeEvent is a notification published by the runtime.
type RuntimeEvent interface {
	isRuntimeEvent()
}

// TaskStarted notifies that a spawned task has started.
type TaskStarted struct {
	ID   string
	Task string
}

// TaskStopped notifies that a spawned task ran to successful completion.
type TaskStopped struct {
	ID   string
	Task string
}

// TaskAborted notifies that a spawned task failed or panicked. The
// failure is terminal for that task only.
type TaskAborted struct {
	ID   string
	Task string
	Err  error
}

// RuntimeErrored notifies a failure of the runtime itself.
type RuntimeErrored struct {
	Err error
}

func (TaskStarted) isRuntimeEvent()    {}
func (TaskStopped) isRuntimeEvent()    {}
func (TaskAborted) isRuntimeEvent()    {}
func (RuntimeErrored) isRuntimeEvent() {}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithEventsSender connects a consumer of the runtime's events. The
// sender is closed when the runtime stops.
func WithEventsSender(events Sender[RuntimeEvent]) Option {
	return func(r *Runtime) {
		r.events = events
	}
}

// WithShutdownTimeout bounds the cascading shutdown: tasks still running
// once the timeout elapses are cancelled through their context.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(r *Runtime) {
		r.shutdownTimeout = timeout
	}
}

// Runtime supervises a set of heterogeneous tasks: it spawns each one as
// an independently scheduled task, tracks them, and shuts them down as a
// group. There is no restart policy: a task failure is terminal for that
// task only.
//
// Lifecycle: Idle -> Running -> (shutdown requested | all handles
// dropped) -> Stopped.
type Runtime struct {
	logger          log.Logger
	handle          *RuntimeHandle
	actions         *Mailbox[RuntimeAction]
	events          Sender[RuntimeEvent]
	shutdownTimeout time.Duration

	taskCtx       context.Context
	cancelTasks   context.CancelFunc
	group         errgroup.Group
	running       mapset.Set[string]
	signals       []Sender[RuntimeRequest]
	panicErr      *atomic.Error
	done          chan struct{}
	releaseHandle sync.Once
}

// NewRuntime launches a runtime. Its background loop runs until a
// Shutdown action is received or every handle clone has been closed.
func NewRuntime(opts ...Option) *Runtime {
	actionsSender, actionsMailbox := NewChannel[RuntimeAction]("Runtime", DefaultActionCapacity)
	taskCtx, cancelTasks := context.WithCancel(context.Background())
	runtime := &Runtime{
		logger:          log.DefaultLogger,
		actions:         actionsMailbox,
		events:          NullSender[RuntimeEvent]{},
		shutdownTimeout: DefaultShutdownTimeout,
		taskCtx:         taskCtx,
		cancelTasks:     cancelTasks,
		running:         mapset.NewSet[string](),
		panicErr:        atomic.NewError(nil),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(runtime)
	}
	runtime.handle = &RuntimeHandle{actions: actionsSender, logger: runtime.logger}
	go runtime.run()
	return runtime
}

// Handle returns a new handle on the runtime. Handles are the only way
// actor code interacts with the runtime; they are explicit capabilities,
// cloned and threaded through builders, never a process-wide singleton.
func (r *Runtime) Handle() *RuntimeHandle {
	return r.handle.Clone()
}

// ActorBuilder builds an actor bound to its message box as a spawnable
// task, and exposes the signal channel the runtime shuts the actor down
// with.
type ActorBuilder interface {
	RuntimeRequestSink
	TryBuildTask() (Task, error)
}

// Spawn builds the actor of the given builder and launches it.
func (r *Runtime) Spawn(ctx context.Context, builder ActorBuilder) error {
	task, err := builder.TryBuildTask()
	if err != nil {
		return err
	}
	return r.handle.Run(ctx, task, builder.GetSignalSender())
}

// RunToCompletion blocks until the runtime's background loop has
// terminated, i.e. until a Shutdown action was processed or every handle
// clone was closed and all tasks completed.
//
// An abnormal termination is told apart from a cooperative one: a panic
// anywhere in the runtime or its tasks yields ErrRuntimePanic, a
// cancelled wait yields ErrRuntimeCancellation.
//
// RunToCompletion consumes the runtime: it releases the runtime's own
// hold on the action channel, so once the callers close their handle
// clones the runtime winds down on its own.
func (r *Runtime) RunToCompletion(ctx context.Context) error {
	r.releaseHandle.Do(func() {
		_ = r.handle.Close()
	})
	select {
	case <-r.done:
		return r.panicErr.Load()
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrRuntimeCancellation, context.Cause(ctx))
	}
}

// run is the runtime's background loop. The cascading shutdown is
// deferred so that even a panic in the loop still winds the spawned
// tasks down before RunToCompletion resolves.
func (r *Runtime) run() {
	defer close(r.done)
	defer r.shutdown()
	defer func() {
		if reason := recover(); reason != nil {
			r.panicErr.CompareAndSwap(nil, fmt.Errorf("%w: %v", ErrRuntimePanic, reason))
		}
	}()

	r.logger.Infof("Runtime: started")
	for {
		action, err := r.actions.Recv(r.taskCtx)
		if err != nil {
			return
		}
		switch action := action.(type) {
		case Spawn:
			r.spawn(action)
		case Shutdown:
			return
		}
	}
}

// spawn launches a task on its own unit of concurrency, converting a
// panic into a recorded, terminal task failure.
func (r *Runtime) spawn(action Spawn) {
	task := action.Task
	id := uuid.NewString()
	if action.Signals != nil {
		r.signals = append(r.signals, action.Signals)
	}
	r.running.Add(task.Name())
	r.logger.Infof("Runtime: spawn %s", task.Name())

	r.group.Go(func() (err error) {
		defer r.running.Remove(task.Name())
		defer func() {
			if reason := recover(); reason != nil {
				err = fmt.Errorf("%w: %s: %v", ErrRuntimePanic, task.Name(), reason)
				r.panicErr.CompareAndSwap(nil, err)
				r.notify(TaskAborted{ID: id, Task: task.Name(), Err: err})
			}
		}()
		r.notify(TaskStarted{ID: id, Task: task.Name()})
		if err := task.Run(r.taskCtx); err != nil {
			r.notify(TaskAborted{ID: id, Task: task.Name(), Err: err})
			return err
		}
		r.notify(TaskStopped{ID: id, Task: task.Name()})
		return nil
	})
}

// shutdown cascades a stop to every running task: first a cooperative
// shutdown request on each registered signal channel, then a bounded
// join, then a hard cancellation of whatever is still running.
func (r *Runtime) shutdown() {
	names := r.running.ToSlice()
	r.logger.Infof("Runtime: shutting down, %d tasks running %v", len(names), names)

	signalCtx, cancelSignal := context.WithTimeout(context.Background(), time.Second)
	for _, signals := range r.signals {
		_ = signals.Send(signalCtx, ShutdownRequest)
		_ = signals.Close()
	}
	cancelSignal()

	joined := make(chan error, 1)
	go func() {
		joined <- r.group.Wait()
	}()

	var err error
	select {
	case err = <-joined:
	case <-time.After(r.shutdownTimeout):
		r.logger.Warnf("Runtime: %d tasks still running after %s, cancelling them",
			r.running.Cardinality(), r.shutdownTimeout)
		r.cancelTasks()
		err = <-joined
	}
	if err != nil {
		r.notify(RuntimeErrored{Err: err})
	}

	r.cancelTasks()
	_ = r.events.Close()
	r.logger.Infof("Runtime: stopped")
}

// notify publishes a runtime event, dropping it when nobody listens.
func (r *Runtime) notify(event RuntimeEvent) {
	_ = r.events.Send(context.Background(), event)
}

// RuntimeHandle is the capability actors use to interact with the
// runtime: spawning more tasks and requesting a global shutdown.
type RuntimeHandle struct {
	actions Sender[RuntimeAction]
	logger  log.Logger
}

// enforce compilation error
var _ MessageSink[RuntimeAction] = (*RuntimeHandle)(nil)

// SpawnTask launches a task in the background, without a shutdown
// signal channel.
func (h *RuntimeHandle) SpawnTask(ctx context.Context, task Task) error {
	return h.Send(ctx, Spawn{Task: task})
}

// Run launches a task in the background and registers the signal
// channel the runtime will shut it down with.
func (h *RuntimeHandle) Run(ctx context.Context, task Task, signals Sender[RuntimeRequest]) error {
	return h.Send(ctx, Spawn{Task: task, Signals: signals})
}

// Shutdown stops all the actors and the runtime.
func (h *RuntimeHandle) Shutdown(ctx context.Context) error {
	return h.Send(ctx, Shutdown{})
}

// Send delivers an action to the runtime.
func (h *RuntimeHandle) Send(ctx context.Context, action RuntimeAction) error {
	h.logger.Debugf("Runtime: schedule %v", action)
	if err := h.actions.Send(ctx, action); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// GetSender exposes the runtime's action channel as a message sink.
func (h *RuntimeHandle) GetSender() Sender[RuntimeAction] {
	return h.actions.Clone()
}

// Clone returns a new handle on the same runtime.
func (h *RuntimeHandle) Clone() *RuntimeHandle {
	return &RuntimeHandle{actions: h.actions.Clone(), logger: h.logger}
}

// Close releases this handle. Once every handle clone is closed the
// runtime winds down as if a shutdown had been requested.
func (h *RuntimeHandle) Close() error {
	return h.actions.Close()
}

// RunActorOn spawns an actor bound to its message box on the runtime
// behind the given handle.
func RunActorOn[MB any](ctx context.Context, handle *RuntimeHandle, actor Actor[MB], messages MB) error {
	return handle.SpawnTask(ctx, NewRunActor(actor, messages))
}
