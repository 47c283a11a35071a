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

// Package downloader provides a request/response service fetching files
// over HTTP with exponential backoff, several downloads at a time.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/edgekit/edgekit/actors"
)

// DefaultMaxConcurrency bounds how many downloads run at once.
const DefaultMaxConcurrency = 4

// Config holds the retry and transport settings of the service.
type Config struct {
	// MaxAttempts bounds how many times a download is tried.
	MaxAttempts int `yaml:"max-attempts"`
	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration `yaml:"initial-delay"`
	// MaxDelay caps the backoff between retries.
	MaxDelay time.Duration `yaml:"max-delay"`
	// Client is the HTTP client to download with. Defaults to
	// http.DefaultClient.
	Client *http.Client `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 15 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Minute
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	return c
}

// Request asks for the file at URL to be downloaded to the Target path.
type Request struct {
	URL    string
	Target string
}

// String implements fmt.Stringer, for message tracing.
func (r Request) String() string {
	return fmt.Sprintf("%s -> %s", r.URL, r.Target)
}

// Response is the outcome of one download Request.
type Response struct {
	// Path of the downloaded file, set on success.
	Path string
	// Err is the terminal failure, after the retries were exhausted.
	Err error
}

// Service downloads files on behalf of its clients.
type Service struct {
	config Config
}

// enforce compilation error
var _ actors.Service[Request, Response] = (*Service)(nil)

// New creates a downloader service.
func New(config Config) *Service {
	return &Service{config: config.withDefaults()}
}

// Name of the service.
func (*Service) Name() string {
	return "Downloader"
}

// Handle downloads one file, retrying transient failures with
// exponential backoff. A client error (4xx) is terminal and not
// retried.
func (s *Service) Handle(ctx context.Context, request Request) Response {
	retrier := retry.NewRetrier(s.config.MaxAttempts, s.config.InitialDelay, s.config.MaxDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return s.fetch(ctx, request)
	})
	if err != nil {
		return Response{Err: fmt.Errorf("%w: downloading %s: %v", actors.ErrIO, request.URL, err)}
	}
	return Response{Path: request.Target}
}

// fetch performs one download attempt, writing to a temporary file that
// is moved over the target only once complete.
func (s *Service) fetch(ctx context.Context, request Request) error {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return retry.Stop(err)
	}
	response, err := s.config.Client.Do(httpRequest)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("server error: %s", response.Status)
	case response.StatusCode >= http.StatusBadRequest:
		return retry.Stop(fmt.Errorf("request rejected: %s", response.Status))
	}

	partial, err := os.CreateTemp(filepath.Dir(request.Target), filepath.Base(request.Target)+".part-*")
	if err != nil {
		return retry.Stop(err)
	}
	defer os.Remove(partial.Name())
	if _, err := io.Copy(partial, response.Body); err != nil {
		partial.Close()
		return err
	}
	if err := partial.Close(); err != nil {
		return err
	}
	return os.Rename(partial.Name(), request.Target)
}

// Builder wires the downloader as a concurrent actor: clients connect
// through ConnectConsumer and submit their download requests.
type Builder struct {
	*actors.ServiceMessageBoxBuilder[Request, Response]
	config         Config
	maxConcurrency int
}

// enforce compilation error
var _ actors.ActorBuilder = (*Builder)(nil)

// NewBuilder prepares a downloader actor running at most maxConcurrency
// downloads at once.
func NewBuilder(config Config, maxConcurrency int) *Builder {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Builder{
		ServiceMessageBoxBuilder: actors.NewServiceMessageBoxBuilder[Request, Response]("Downloader", actors.DefaultChannelCapacity),
		config:                   config,
		maxConcurrency:           maxConcurrency,
	}
}

// TryBuildTask binds the service to its box as a spawnable task.
func (b *Builder) TryBuildTask() (actors.Task, error) {
	box, err := b.TryBuildConcurrent(b.maxConcurrency)
	if err != nil {
		return nil, err
	}
	return actors.NewRunActor[*actors.ConcurrentServiceMessageBox[Request, Response]](
		actors.NewConcurrentServiceActor[Request, Response](New(b.config)), box), nil
}
