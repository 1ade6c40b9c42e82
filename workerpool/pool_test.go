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

package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go.qwrpc.dev/qwrpc/workerpool"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := workerpool.New(4)
	defer p.Stop()

	var n int64
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&n))
}

func TestPoolUsesDefaultSizeWhenNonPositive(t *testing.T) {
	p := workerpool.New(0)
	defer p.Stop()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestPoolSubmitAfterStopFails(t *testing.T) {
	p := workerpool.New(2)
	p.Stop()

	err := p.Submit(func() {})
	assert.Error(t, err)
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := workerpool.New(2)
	p.Stop()
	assert.NotPanics(t, func() { p.Stop() })
}

func TestPoolStopWaitsForQueuedTasks(t *testing.T) {
	p := workerpool.New(1)

	started := make(chan struct{})
	release := make(chan struct{})
	var ran int64

	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
		atomic.AddInt64(&ran, 1)
	}))
	require.NoError(t, p.Submit(func() {
		atomic.AddInt64(&ran, 1)
	}))

	<-started
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the blocked task released")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.Equal(t, int64(2), atomic.LoadInt64(&ran))
}

func TestPoolQueueDepthReflectsPendingTasks(t *testing.T) {
	p := workerpool.New(1)
	defer p.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	require.NoError(t, p.Submit(func() {}))
	require.NoError(t, p.Submit(func() {}))

	assert.Equal(t, 2, p.QueueDepth())
	close(release)
}

func TestPoolWarnsAtHighWaterMark(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	p := workerpool.New(1, workerpool.WithLogger(logger), workerpool.WithHighWaterMark(2))
	defer p.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	require.NoError(t, p.Submit(func() {}))
	require.NoError(t, p.Submit(func() {}))

	close(release)
	assert.GreaterOrEqual(t, logs.Len(), 1)
}
