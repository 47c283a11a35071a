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

// Package actors defines, composes and runs actors.
//
// Actors are processing units that interact using asynchronous messages.
// Each actor exclusively owns a message box from which it consumes its
// input and through which it forwards its output to the boxes of its
// peers. There is no shared mutable state between actors: all
// coordination happens over bounded channels, so a full channel
// suspends the sender (backpressure) rather than buffering without
// limit.
//
// Actors are wired together before the system starts, using the builder
// contracts (MessageSource, MessageSink, ServiceProvider), then handed
// to a Runtime that spawns each one as an independent task and joins
// them on shutdown.
package actors
