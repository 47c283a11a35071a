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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedSender(t *testing.T) {
	ctx := context.TODO()
	sender, mailbox := NewChannel[Keyed[ClientID, string]]("shared", 8)
	alice := NewKeyedSender(ClientID(0), Sender[Keyed[ClientID, string]](sender.Clone()))
	bob := NewKeyedSender(ClientID(1), Sender[Keyed[ClientID, string]](sender.Clone()))
	require.NoError(t, sender.Close())

	require.NoError(t, alice.Send(ctx, "from alice"))
	require.NoError(t, bob.Send(ctx, "from bob"))

	// the shared mailbox can tell where each message came from
	first, err := mailbox.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, Keyed[ClientID, string]{Key: 0, Message: "from alice"}, first)
	second, err := mailbox.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, Keyed[ClientID, string]{Key: 1, Message: "from bob"}, second)

	require.NoError(t, alice.Close())
	require.NoError(t, bob.Close())
	_, err = mailbox.Recv(ctx)
	require.ErrorIs(t, err, ErrClosedChannel)
}

func TestSenderVec(t *testing.T) {
	t.Run("With messages dispatched by key", func(t *testing.T) {
		ctx := context.TODO()
		aliceSender, aliceMailbox := NewChannel[string]("alice", 8)
		bobSender, bobMailbox := NewChannel[string]("bob", 8)
		vec := NewSenderVec([]Sender[string]{aliceSender, bobSender}, DropUnknownRoutes)

		require.NoError(t, vec.Send(ctx, Keyed[ClientID, string]{Key: 1, Message: "for bob"}))
		require.NoError(t, vec.Send(ctx, Keyed[ClientID, string]{Key: 0, Message: "for alice"}))

		// the key is stripped on delivery
		message, err := aliceMailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "for alice", message)
		message, err = bobMailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "for bob", message)

		require.NoError(t, vec.Close())
	})
	t.Run("With unknown keys silently dropped by default", func(t *testing.T) {
		ctx := context.TODO()
		sender, mailbox := NewChannel[string]("only", 8)
		vec := NewSenderVec([]Sender[string]{sender}, DropUnknownRoutes)

		require.NoError(t, vec.Send(ctx, Keyed[ClientID, string]{Key: 7, Message: "nobody home"}))
		require.NoError(t, vec.Send(ctx, Keyed[ClientID, string]{Key: 0, Message: "delivered"}))
		require.NoError(t, vec.Close())

		message, err := mailbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "delivered", message)
		_, err = mailbox.Recv(ctx)
		require.ErrorIs(t, err, ErrClosedChannel)
	})
	t.Run("With unknown keys rejected under the strict policy", func(t *testing.T) {
		ctx := context.TODO()
		sender, _ := NewChannel[string]("only", 8)
		vec := NewSenderVec([]Sender[string]{sender}, FailUnknownRoutes)

		require.ErrorIs(t, vec.Send(ctx, Keyed[ClientID, string]{Key: 7, Message: "nobody home"}), ErrUnknownRoute)
		require.NoError(t, vec.Close())
	})
	t.Run("With every close failure aggregated", func(t *testing.T) {
		first := errors.New("first peer failed")
		second := errors.New("second peer failed")
		vec := NewSenderVec([]Sender[string]{
			closeFailSender{err: first},
			NullSender[string]{},
			closeFailSender{err: second},
		}, DropUnknownRoutes)

		err := vec.Close()
		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
	})
}

// closeFailSender fails on Close with a fixed error.
type closeFailSender struct {
	err error
}

func (s closeFailSender) Send(ctx context.Context, message string) error {
	_, _ = ctx, message
	return nil
}

func (s closeFailSender) Clone() Sender[string] {
	return s
}

func (s closeFailSender) Close() error {
	return s.err
}
