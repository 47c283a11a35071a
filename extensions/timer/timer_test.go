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

package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgekit/edgekit/actors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startTimerActor(t *testing.T) (actors.Sender[SetTimeout[string]], *actors.Mailbox[Timeout[string]], actors.Sender[actors.RuntimeRequest], chan error) {
	t.Helper()
	builder := NewBuilder[string]()
	probeSender, probeMailbox := actors.NewChannel[Timeout[string]]("probe", 16)
	builder.ConnectSender(probeSender)
	input := builder.GetSender()
	signals := builder.GetSignalSender()
	box, err := builder.TryBuild()
	require.NoError(t, err)
	box.SetLogging(false)

	done := make(chan error, 1)
	go func() {
		done <- New[string]().Run(context.TODO(), box)
	}()
	return input, probeMailbox, signals, done
}

func TestTimeoutsFireInChronologicalOrder(t *testing.T) {
	ctx := context.TODO()
	input, probe, signals, done := startTimerActor(t)

	// requested out of order, fired in deadline order
	require.NoError(t, input.Send(ctx, SetTimeout[string]{Duration: 200 * time.Millisecond, Event: "second"}))
	require.NoError(t, input.Send(ctx, SetTimeout[string]{Duration: 100 * time.Millisecond, Event: "first"}))

	timeout, err := probe.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", timeout.Event)
	timeout, err = probe.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", timeout.Event)

	require.NoError(t, input.Close())
	require.NoError(t, signals.Close())
	require.NoError(t, <-done)
}

func TestShutdownDiscardsPendingTimeouts(t *testing.T) {
	ctx := context.TODO()
	input, probe, signals, done := startTimerActor(t)

	require.NoError(t, input.Send(ctx, SetTimeout[string]{Duration: time.Hour, Event: "never"}))

	// a runtime shutdown request wins over the pending timeout
	start := time.Now()
	require.NoError(t, signals.Send(ctx, actors.ShutdownRequest))
	require.NoError(t, <-done)
	assert.Less(t, time.Since(start), time.Second)

	// the pending timeout was discarded, not fired
	_, err := probe.Recv(ctx)
	require.ErrorIs(t, err, actors.ErrClosedChannel)

	require.NoError(t, input.Close())
	require.NoError(t, signals.Close())
}

func TestPendingTimeoutsFireAfterEndOfInput(t *testing.T) {
	ctx := context.TODO()
	input, probe, signals, done := startTimerActor(t)

	require.NoError(t, input.Send(ctx, SetTimeout[string]{Duration: 100 * time.Millisecond, Event: "later"}))
	require.NoError(t, input.Send(ctx, SetTimeout[string]{Duration: 50 * time.Millisecond, Event: "sooner"}))
	// the input ends while both timeouts are still pending
	require.NoError(t, input.Close())

	timeout, err := probe.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sooner", timeout.Event)
	timeout, err = probe.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "later", timeout.Event)
	_, err = probe.Recv(ctx)
	require.ErrorIs(t, err, actors.ErrClosedChannel)

	require.NoError(t, signals.Close())
	require.NoError(t, <-done)
}
