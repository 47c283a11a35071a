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

// Message is the contract satisfied by every value exchanged between
// actors. A message must be independently ownable by its receiver: once
// sent, the sender must not retain a mutable alias to it. Messages
// should have value semantics and print usefully with %v, since every
// message transition can be traced at the box boundary.
type Message = any

// NoMessage is the input type of actors that only produce messages.
type NoMessage struct{}

// Keyed attaches a routing key to a message.
//
// A shared mailbox uses the key to tell apart the logical origin (or
// destination) of messages without the peers knowing the mailbox's
// internal addressing scheme.
type Keyed[K comparable, M Message] struct {
	Key     K
	Message M
}

// ClientID identifies one logical client among the many multiplexed
// over a single service mailbox. It is opaque to clients: a service box
// assigns ids on connection and uses them to correlate each response
// with the client that issued the request. Ids are namespaced by box
// instance, not globally.
type ClientID int
