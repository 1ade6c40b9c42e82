// Copyright (c) 2023 qwrpc-go authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package qwrpc

import (
	"time"

	"go.uber.org/zap"

	"go.qwrpc.dev/qwrpc/workerpool"
)

// serverOptions holds the configurable knobs of a Server, assembled by
// the functional ServerOption values passed to NewServer - the same
// pattern the teacher's transport/grpc.Option and top-level yarpc.Config
// use for their own inbounds/outbounds.
type serverOptions struct {
	poolSize      int
	highWaterMark int
	logger        *zap.Logger
}

func newServerOptions() *serverOptions {
	return &serverOptions{
		poolSize:      workerpool.DefaultSize,
		highWaterMark: workerpool.DefaultHighWaterMark,
		logger:        zap.NewNop(),
	}
}

// ServerOption configures a Server at construction.
type ServerOption func(*serverOptions)

// WithPoolSize overrides the worker pool's fixed size (default 16, per
// spec.md §4.5).
func WithPoolSize(n int) ServerOption {
	return func(o *serverOptions) { o.poolSize = n }
}

// WithQueueHighWaterMark overrides the queue depth at which the server
// logs a saturation warning (spec.md §9's pool-exhaustion open question).
func WithQueueHighWaterMark(n int) ServerOption {
	return func(o *serverOptions) { o.highWaterMark = n }
}

// WithServerLogger sets the *zap.Logger the server, its worker pool, and
// its dispatcher log through. Defaults to zap.NewNop(), matching the
// teacher's default no-op logger.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// clientOptions holds the configurable knobs of a Client.
type clientOptions struct {
	dialTimeout time.Duration
	logger      *zap.Logger
}

func newClientOptions() *clientOptions {
	return &clientOptions{
		dialTimeout: 10 * time.Second,
		logger:      zap.NewNop(),
	}
}

// ClientOption configures a Client at construction.
type ClientOption func(*clientOptions)

// WithDialTimeout overrides the timeout Dial uses to establish the
// underlying TCP connection.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.dialTimeout = d }
}

// WithClientLogger sets the *zap.Logger the Client logs through.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
