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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edgekit/log"
)

// echoActor sends back every message it receives, unchanged.
type echoActor struct{}

func (echoActor) Name() string {
	return "Echo"
}

func (echoActor) Run(ctx context.Context, messages *SimpleMessageBox[string, string]) error {
	for {
		message, err := messages.Recv(ctx)
		if err != nil {
			return ignoreClosure(err)
		}
		if err := messages.Send(ctx, message); err != nil {
			return err
		}
	}
}

func TestSimpleMessageBoxPair(t *testing.T) {
	ctx := context.TODO()
	client, server := NewSimpleMessageBoxPair[string, string]("echo", DefaultChannelCapacity)
	client.SetLogging(false)
	server.SetLogging(false)
	assert.Equal(t, "echo", server.Name())
	assert.Equal(t, "echo-Client", client.Name())

	done := make(chan error, 1)
	go func() {
		done <- echoActor{}.Run(ctx, server)
	}()

	// the two boxes are mirrored: what one sends the other receives
	require.NoError(t, client.Send(ctx, "hello"))
	require.NoError(t, client.Send(ctx, "world"))
	message, err := client.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", message)
	message, err = client.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", message)

	// closing the client's sending side stops the actor cleanly
	require.NoError(t, client.Close())
	require.NoError(t, <-done)
}

func TestSimpleMessageBoxBuilder(t *testing.T) {
	t.Run("With a missing sink rejected by TryBuild", func(t *testing.T) {
		builder := NewSimpleMessageBoxBuilder[string, string]("orphan", DefaultChannelCapacity)
		_, err := builder.TryBuild()
		require.ErrorIs(t, err, ErrMissingPeer)
		var linkErr *LinkError
		require.ErrorAs(t, err, &linkErr)
		assert.Equal(t, "orphan", linkErr.Source)
	})
	t.Run("With Build falling back to a null peer", func(t *testing.T) {
		ctx := context.TODO()
		builder := NewSimpleMessageBoxBuilder[string, string]("quiet", DefaultChannelCapacity)
		box := builder.Build()
		box.SetLogging(false)
		// messages sent to nowhere are dropped, not an error
		require.NoError(t, box.Send(ctx, "into the void"))
	})
	t.Run("With the output fanned out to every connected sink", func(t *testing.T) {
		ctx := context.TODO()
		builder := NewSimpleMessageBoxBuilder[string, string]("fanout", DefaultChannelCapacity)
		firstSender, firstMailbox := NewChannel[string]("first", 8)
		secondSender, secondMailbox := NewChannel[string]("second", 8)
		builder.ConnectSender(firstSender)
		builder.ConnectSink(NoConfig{}, SinkOf[string](secondSender))
		require.NoError(t, secondSender.Close())

		box, err := builder.TryBuild()
		require.NoError(t, err)
		box.SetLogging(false)
		require.NoError(t, box.Send(ctx, "to all"))

		message, err := firstMailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "to all", message)
		message, err = secondMailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "to all", message)

		require.NoError(t, box.Close())
	})
	t.Run("With a runtime signal interrupting the actor", func(t *testing.T) {
		ctx := context.TODO()
		builder := NewSimpleMessageBoxBuilder[string, string]("signalled", DefaultChannelCapacity)
		outputSender, outputMailbox := NewChannel[string]("probe", 8)
		builder.ConnectSender(outputSender)
		input := builder.GetSender()
		signals := builder.GetSignalSender()
		box, err := builder.TryBuild()
		require.NoError(t, err)
		box.SetLogging(false)

		done := make(chan error, 1)
		go func() {
			done <- echoActor{}.Run(ctx, box)
		}()

		require.NoError(t, input.Send(ctx, "still alive"))
		message, err := outputMailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "still alive", message)

		// a shutdown request stops the actor even though its input is open
		require.NoError(t, signals.Send(ctx, ShutdownRequest))
		require.NoError(t, <-done)
		require.NoError(t, input.Close())
		require.NoError(t, signals.Close())
	})
}

func TestMessageBoxLogging(t *testing.T) {
	ctx := context.TODO()
	var buffer strings.Builder
	client, server := NewSimpleMessageBoxPair[string, string]("traced", DefaultChannelCapacity)
	client.SetLogging(false)
	server.SetLogger(log.NewZap(log.DebugLevel, &buffer))

	require.NoError(t, client.Send(ctx, "ping"))
	_, err := server.Recv(ctx)
	require.NoError(t, err)
	require.NoError(t, server.Send(ctx, "pong"))

	logged := buffer.String()
	assert.Contains(t, logged, "traced: recv ping")
	assert.Contains(t, logged, "traced: send pong")

	server.SetLogging(false)
	require.NoError(t, server.Send(ctx, "quiet"))
	assert.NotContains(t, buffer.String(), "quiet")

	require.NoError(t, client.Close())
	require.NoError(t, server.Close())
}
