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
)

// uppercase turns every request into its uppercase form.
type uppercase struct{}

func (uppercase) Name() string {
	return "Uppercase"
}

func (uppercase) Handle(_ context.Context, request string) string {
	return strings.ToUpper(request)
}

func TestRequestResponseHandler(t *testing.T) {
	ctx := context.TODO()
	builder := NewServiceMessageBoxBuilder[string, string]("uppercase", DefaultChannelCapacity)
	handler := NewRequestResponseHandler[string, string]("caller", builder, NoConfig{})
	handler.SetLogging(false)
	assert.Equal(t, "caller", handler.Name())

	box, err := builder.TryBuild()
	require.NoError(t, err)
	box.SetLogging(false)

	done := make(chan error, 1)
	go func() {
		done <- NewServiceActor[string, string](uppercase{}).Run(ctx, box)
	}()

	// a synchronous-looking round trip over the actor machinery
	response, err := handler.AwaitResponse(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", response)

	// one outstanding request at a time, but as many round trips as needed
	response, err = handler.AwaitResponse(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, "AGAIN", response)

	// split send and recv work too
	require.NoError(t, handler.Send(ctx, "split"))
	response, err = handler.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SPLIT", response)

	require.NoError(t, handler.Close())
	require.NoError(t, <-done)
}

func TestRequestResponseHandlerAgainstGoneService(t *testing.T) {
	ctx := context.TODO()
	builder := NewServiceMessageBoxBuilder[string, string]("uppercase", DefaultChannelCapacity)
	handler := NewRequestResponseHandler[string, string]("caller", builder, NoConfig{})
	handler.SetLogging(false)

	box, err := builder.TryBuild()
	require.NoError(t, err)
	box.SetLogging(false)

	// the service stops before any request is handled
	done := make(chan error, 1)
	go func() {
		done <- NewServiceActor[string, string](uppercase{}).Run(ctx, box)
	}()
	require.NoError(t, handler.Close())
	require.NoError(t, <-done)

	_, err = handler.AwaitResponse(ctx, "too late")
	require.ErrorIs(t, err, ErrClosedChannel)
}
