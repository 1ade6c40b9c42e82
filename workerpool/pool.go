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

// Package workerpool is a fixed-size pool of goroutines draining a shared
// task queue, the Go analogue of the original qwrpc's Thpool: a
// std::vector<std::thread> consuming a std::queue<Task> guarded by a
// mutex and condition variable. Each connection the server accepts is
// handed to this pool as one task and stays pinned to whichever worker
// picks it up for the connection's whole lifetime.
package workerpool

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"go.qwrpc.dev/qwrpc/qwrpcerrors"
)

// DefaultSize is the worker count a Pool uses when none is configured,
// matching the original's hardcoded Thpool(16).
const DefaultSize = 16

// DefaultHighWaterMark is the queue depth at which Submit logs a warning.
// The protocol leaves pool-exhaustion behavior unspecified beyond
// "connections queue indefinitely"; this only adds observability, not
// backpressure.
const DefaultHighWaterMark = 64

// Pool runs a fixed number of worker goroutines against a shared, and
// deliberately unbounded, task queue.
type Pool struct {
	mu            sync.Mutex
	cond          *sync.Cond
	tasks         []func()
	running       *atomic.Bool
	wg            sync.WaitGroup
	logger        *zap.Logger
	highWaterMark int
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithLogger sets the logger a Pool uses to report queue-depth warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithHighWaterMark overrides DefaultHighWaterMark.
func WithHighWaterMark(n int) Option {
	return func(p *Pool) { p.highWaterMark = n }
}

// New starts a Pool of size worker goroutines.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{
		running:       atomic.NewBool(true),
		logger:        zap.NewNop(),
		highWaterMark: DefaultHighWaterMark,
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.loop()
	}
	return p
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && p.running.Load() {
			p.cond.Wait()
		}
		if len(p.tasks) == 0 && !p.running.Load() {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()

		task()
	}
}

// Submit enqueues task for the next free worker. It never blocks the
// caller on worker availability - the queue grows instead, per the
// protocol's open question on pool exhaustion - but it does fail once the
// pool has been stopped.
func (p *Pool) Submit(task func()) error {
	if !p.running.Load() {
		return qwrpcerrors.TransportErrorf("workerpool: submit on a stopped pool")
	}

	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	depth := len(p.tasks)
	p.mu.Unlock()

	if depth >= p.highWaterMark {
		p.logger.Warn("worker pool queue depth crossed high-water mark", zap.Int("depth", depth))
	}

	p.cond.Signal()
	return nil
}

// QueueDepth returns the number of tasks currently waiting for a worker.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// Stop signals every worker to exit once the queue drains and blocks
// until all of them have. It is idempotent: calling Stop twice is a
// no-op the second time.
func (p *Pool) Stop() {
	if !p.running.CAS(true, false) {
		return
	}
	p.cond.Broadcast()
	p.wg.Wait()
}
