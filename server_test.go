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

package qwrpc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.qwrpc.dev/qwrpc"
	qwrpcexample "go.qwrpc.dev/qwrpc/examples/qwrpc"
	"go.qwrpc.dev/qwrpc/methodtest"
	"go.qwrpc.dev/qwrpc/qwrpcerrors"
)

// startTestServer brings up a Server on an OS-assigned loopback port,
// running its accept loop on a background goroutine the way
// examples/qwrpc/server/main.go does, and returns a Client already
// dialed against it; a t.Cleanup hook tears both down.
func startTestServer(t *testing.T, reg qwrpc.Registry) *qwrpc.Client {
	t.Helper()
	srv := qwrpc.NewServer("127.0.0.1:0", reg)

	started := make(chan struct{})
	go func() {
		close(started)
		if err := srv.Start(); err != nil {
			t.Logf("server stopped: %v", err)
		}
	}()
	<-started

	var addr string
	for i := 0; i < 100; i++ {
		if a := srv.Addr(); a != nil {
			addr = a.String()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, addr, "server never started listening")

	var client *qwrpc.Client
	var err error
	for i := 0; i < 100; i++ {
		client, err = qwrpc.Dial(addr)
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

func TestServerClientPlusRoundTrip(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a, b int32) (int32, error) { return a + b, nil })
	require.NoError(t, err)
	reg.Register("plus", m)

	client := startTestServer(t, reg)

	sum, err := qwrpc.Call[int32](client, "plus", int32(2), int32(3))
	require.NoError(t, err)
	assert.Equal(t, int32(5), sum)
}

func TestServerClientFixedStructRoundTrip(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(c qwrpcexample.C) (qwrpcexample.D, error) {
		return qwrpcexample.D{D: c.C + 1}, nil
	})
	require.NoError(t, err)
	reg.Register("foo1", m)

	client := startTestServer(t, reg)

	d, err := qwrpc.Call[qwrpcexample.D](client, "foo1", qwrpcexample.C{C: 41})
	require.NoError(t, err)
	assert.Equal(t, int32(42), d.D)
}

func TestServerClientContainerRoundTrip(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(cs []qwrpcexample.C) ([][]qwrpcexample.C, error) {
		return [][]qwrpcexample.C{cs, cs}, nil
	})
	require.NoError(t, err)
	reg.Register("foo2", m)

	client := startTestServer(t, reg)

	in := []qwrpcexample.C{{C: 1}, {C: 2}, {C: 3}}
	got, err := qwrpc.Call[[][]qwrpcexample.C](client, "foo2", in)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, in, got[0])
	assert.Equal(t, in, got[1])
}

func TestServerClientCodecTypeRoundTrip(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a qwrpcexample.A) ([]qwrpcexample.B, error) {
		return []qwrpcexample.B{{Data: "hi"}, {Data: "there"}}, nil
	})
	require.NoError(t, err)
	reg.Register("foo3", m)

	client := startTestServer(t, reg)

	got, err := qwrpc.Call[[]qwrpcexample.B](client, "foo3", qwrpcexample.A{Data: 7})
	require.NoError(t, err)
	assert.Equal(t, []qwrpcexample.B{{Data: "hi"}, {Data: "there"}}, got)
}

func TestServerClientAsyncCall(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(s string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "echo:" + s, nil
	})
	require.NoError(t, err)
	reg.Register("slow", m)

	client := startTestServer(t, reg)

	future := qwrpc.AsyncCall[string](client, "slow", "hi")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", got)
}

func TestServerClientAsyncCallCancellation(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(s string) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return s, nil
	})
	require.NoError(t, err)
	reg.Register("slow", m)

	client := startTestServer(t, reg)

	future := qwrpc.AsyncCall[string](client, "slow", "hi")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = future.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServerClientUnknownMethod(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	client := startTestServer(t, reg)

	_, err := qwrpc.Call[int32](client, "nope", int32(1))
	require.Error(t, err)
	assert.Equal(t, qwrpcerrors.MessageUnknownID, qwrpcerrors.ErrorMessage(err))
}

func TestServerClientArgTypeMismatch(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a, b int32) (int32, error) { return a + b, nil })
	require.NoError(t, err)
	reg.Register("plus", m)

	client := startTestServer(t, reg)

	_, err = qwrpc.Call[int32](client, "plus", "not", "ints")
	require.Error(t, err)
	assert.Equal(t, qwrpcerrors.MessageInvalidArgument, qwrpcerrors.ErrorMessage(err))
	assert.Equal(t, []string{"int", "int"}, qwrpcerrors.ExpectedArgs(err))
}

func TestServerClientHandlerFailure(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a int32) (int32, error) {
		return 0, assert.AnError
	})
	require.NoError(t, err)
	reg.Register("boom", m)

	client := startTestServer(t, reg)

	_, err = qwrpc.Call[int32](client, "boom", int32(1))
	require.Error(t, err)
	assert.Equal(t, qwrpcerrors.MessageInvokeError, qwrpcerrors.ErrorMessage(err))
}

func TestServerClientMultipleCallsOnOneConnection(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a int32) (int32, error) { return a * 2, nil })
	require.NoError(t, err)
	reg.Register("double", m)

	client := startTestServer(t, reg)

	for i := int32(0); i < 5; i++ {
		got, err := qwrpc.Call[int32](client, "double", i)
		require.NoError(t, err)
		assert.Equal(t, i*2, got)
	}
}

// TestServerClientWithMockRegistry drives a real Server/Client pair over a
// methodtest.MockRegistry instead of a MapRegistry, the way a service built
// on qwrpc would unit test its own wiring against the Registry interface
// without standing up the handlers a MapRegistry would otherwise require.
func TestServerClientWithMockRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, err := qwrpc.NewHandlerMethod(func(a int32) (int32, error) { return a + 1, nil })
	require.NoError(t, err)

	reg := methodtest.NewMockRegistry(ctrl)
	reg.EXPECT().Lookup("incr").Return(m, true)
	reg.EXPECT().Lookup("missing").Return(nil, false)

	client := startTestServer(t, reg)

	got, err := qwrpc.Call[int32](client, "incr", int32(41))
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)

	_, err = qwrpc.Call[int32](client, "missing", int32(1))
	require.Error(t, err)
	assert.Equal(t, qwrpcerrors.MessageUnknownID, qwrpcerrors.ErrorMessage(err))
}

func TestServerClientCloseIsIdempotentAndRejectsFurtherCalls(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func() (int32, error) { return 1, nil })
	require.NoError(t, err)
	reg.Register("one", m)

	client := startTestServer(t, reg)

	_, err = qwrpc.Call[int32](client, "one")
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = qwrpc.Call[int32](client, "one")
	assert.Error(t, err)
}
