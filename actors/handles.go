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

import "context"

// RequestResponseHandler is the client-side box of a request/response
// service: a synchronous-looking façade with exactly one outstanding
// request at a time. Note that this box sends requests and receives
// responses, the mirror of the service's own box.
type RequestResponseHandler[Req, Res Message] struct {
	messages *SimpleMessageBox[Res, Req]
}

// NewRequestResponseHandler connects a new client to the service behind
// the given provider, using the given connection config.
func NewRequestResponseHandler[Req, Res Message, Config any](clientName string, service ServiceProvider[Req, Res, Config], config Config) *RequestResponseHandler[Req, Res] {
	// At most one response is ever expected.
	responseSender, responseMailbox := NewChannel[Res](clientName, 1)
	requestSender := service.ConnectConsumer(config, responseSender)
	messages := NewSimpleMessageBox(clientName, responseMailbox, requestSender)
	return &RequestResponseHandler[Req, Res]{messages: messages}
}

// AwaitResponse sends the request and waits for its response. It fails
// with a ChannelError when the service end is gone.
func (h *RequestResponseHandler[Req, Res]) AwaitResponse(ctx context.Context, request Req) (Res, error) {
	var nothing Res
	if err := h.messages.Send(ctx, request); err != nil {
		return nothing, err
	}
	return h.messages.Recv(ctx)
}

// Recv returns the next response.
func (h *RequestResponseHandler[Req, Res]) Recv(ctx context.Context) (Res, error) {
	return h.messages.Recv(ctx)
}

// Send submits a request without waiting for its response.
func (h *RequestResponseHandler[Req, Res]) Send(ctx context.Context, request Req) error {
	return h.messages.Send(ctx, request)
}

// Name of the client.
func (h *RequestResponseHandler[Req, Res]) Name() string {
	return h.messages.Name()
}

// SetLogging turns the tracing of message transitions on or off.
func (h *RequestResponseHandler[Req, Res]) SetLogging(on bool) {
	h.messages.SetLogging(on)
}

// Close releases the request channel, signalling the service that this
// client is gone.
func (h *RequestResponseHandler[Req, Res]) Close() error {
	return h.messages.Close()
}

// enforce compilation error
var _ MessageBox[Message, Message] = (*RequestResponseHandler[Message, Message])(nil)
