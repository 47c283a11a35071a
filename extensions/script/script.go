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

// Package script provides a request/response service running child
// processes on behalf of its clients, several of them concurrently.
package script

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/edgekit/edgekit/actors"
)

// DefaultMaxConcurrency bounds how many child processes run at once.
const DefaultMaxConcurrency = 4

// Execute asks for a command to be run as a child process.
type Execute struct {
	Command string
	Args    []string
}

// String implements fmt.Stringer, for message tracing.
func (e Execute) String() string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

// CommandOutput is the outcome of one Execute request. Err is set when
// the command could not be started at all; a command that started and
// exited non-zero is reported through ExitCode alone.
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Service runs each Execute request as a child process.
type Service struct{}

// enforce compilation error
var _ actors.Service[Execute, CommandOutput] = (*Service)(nil)

// New creates the script service.
func New() *Service {
	return &Service{}
}

// Name of the service.
func (*Service) Name() string {
	return "Script"
}

// Handle runs the command to completion, capturing its output. The
// child process is killed when ctx ends first.
func (*Service) Handle(ctx context.Context, request Execute) CommandOutput {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, request.Command, request.Args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	exitCode := -1
	if command.ProcessState != nil {
		exitCode = command.ProcessState.ExitCode()
	}
	var startErr error
	if err != nil && command.ProcessState == nil {
		startErr = fmt.Errorf("%w: %v", actors.ErrIO, err)
	}
	return CommandOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Err:      startErr,
	}
}

// Builder wires the script service as a concurrent actor: clients
// connect through ConnectConsumer and submit Execute requests.
type Builder struct {
	*actors.ServiceMessageBoxBuilder[Execute, CommandOutput]
	maxConcurrency int
}

// enforce compilation error
var _ actors.ActorBuilder = (*Builder)(nil)

// NewBuilder prepares a script actor running at most maxConcurrency
// child processes at once. A non-positive value selects
// DefaultMaxConcurrency.
func NewBuilder(maxConcurrency int) *Builder {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Builder{
		ServiceMessageBoxBuilder: actors.NewServiceMessageBoxBuilder[Execute, CommandOutput]("Script", actors.DefaultChannelCapacity),
		maxConcurrency:           maxConcurrency,
	}
}

// TryBuildTask binds the service to its box as a spawnable task.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	box, err := b.TryBuildConcurrent(b.maxConcurrency)
	if err != nil {
		return nil, err
	}
	return actors.NewRunActor[*actors.ConcurrentServiceMessageBox[Execute, CommandOutput]](
		actors.NewConcurrentServiceActor[Execute, CommandOutput](New()), box), nil
}
