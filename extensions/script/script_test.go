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

package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgekit/edgekit/actors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startScriptActor(t *testing.T) (*actors.RequestResponseHandler[Execute, CommandOutput], chan error) {
	t.Helper()
	builder := NewBuilder(2)
	handler := actors.NewRequestResponseHandler[Execute, CommandOutput]("tester", builder, actors.NoConfig{})
	handler.SetLogging(false)
	task, err := builder.TryBuildTask()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- task.Run(context.TODO())
	}()
	return handler, done
}

func TestScriptCapturesStdout(t *testing.T) {
	ctx := context.TODO()
	handler, done := startScriptActor(t)

	output, err := handler.AwaitResponse(ctx, Execute{Command: "echo", Args: []string{"A message"}})
	require.NoError(t, err)
	assert.Equal(t, "A message\n", output.Stdout)
	assert.Empty(t, output.Stderr)
	assert.Equal(t, 0, output.ExitCode)
	assert.NoError(t, output.Err)

	require.NoError(t, handler.Close())
	require.NoError(t, <-done)
}

func TestScriptReportsExitCode(t *testing.T) {
	ctx := context.TODO()
	handler, done := startScriptActor(t)

	output, err := handler.AwaitResponse(ctx, Execute{Command: "false"})
	require.NoError(t, err)
	assert.Equal(t, 1, output.ExitCode)
	assert.NoError(t, output.Err)

	require.NoError(t, handler.Close())
	require.NoError(t, <-done)
}

func TestScriptReportsStartFailure(t *testing.T) {
	ctx := context.TODO()
	handler, done := startScriptActor(t)

	output, err := handler.AwaitResponse(ctx, Execute{Command: "no-such-command-anywhere"})
	require.NoError(t, err)
	assert.Equal(t, -1, output.ExitCode)
	require.ErrorIs(t, output.Err, actors.ErrIO)

	require.NoError(t, handler.Close())
	require.NoError(t, <-done)
}
