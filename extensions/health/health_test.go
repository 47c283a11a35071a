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

package health

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgekit/edgekit/actors"
	"github.com/edgekit/edgekit/extensions/bridge"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recvStatus(t *testing.T, probe *actors.Mailbox[bridge.Message]) Status {
	t.Helper()
	message, err := probe.Recv(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "status.health", message.Subject)
	assert.True(t, message.Retain)
	var status Status
	require.NoError(t, json.Unmarshal(message.Payload, &status))
	return status
}

func TestHealthMonitor(t *testing.T) {
	ctx := context.TODO()
	builder := NewBuilder(Config{
		Service:        "tester",
		RequestSubject: "check.health",
		StatusSubject:  "status.health",
	})
	probeSender, probe := actors.NewChannel[bridge.Message]("probe", 16)
	builder.ConnectSender(probeSender)
	checks := builder.GetSender()
	signals := builder.GetSignalSender()

	task, err := builder.TryBuildTask()
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- task.Run(ctx)
	}()

	// an "up" status is published at startup without being asked
	status := recvStatus(t, probe)
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "tester", status.Service)
	assert.Equal(t, os.Getpid(), status.Pid)
	assert.NotZero(t, status.Time)

	// every health-check request gets a fresh status
	require.NoError(t, checks.Send(ctx, bridge.Message{Subject: "check.health"}))
	status = recvStatus(t, probe)
	assert.Equal(t, "up", status.Status)

	// a cooperative stop leaves a "down" status behind
	require.NoError(t, signals.Send(ctx, actors.ShutdownRequest))
	status = recvStatus(t, probe)
	assert.Equal(t, "down", status.Status)
	require.NoError(t, <-done)

	_, err = probe.Recv(ctx)
	require.ErrorIs(t, err, actors.ErrClosedChannel)
	require.NoError(t, checks.Close())
	require.NoError(t, signals.Close())
}
