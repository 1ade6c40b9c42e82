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
	"context"
	"net"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"go.qwrpc.dev/qwrpc/qwrpcerrors"
	"go.qwrpc.dev/qwrpc/serialize"
	"go.qwrpc.dev/qwrpc/transport"
)

// Client is a persistent connection to a qwrpc server. Per spec.md §9's
// open question on concurrent calls, callMu serializes every
// send-then-recv pair so that two goroutines issuing Call/AsyncCall on
// the same Client never interleave frames on the wire - the original
// qwrpc made no such provision and is noted there as a known gap this
// port closes.
type Client struct {
	conn   *transport.Conn
	opts   *clientOptions
	callMu sync.Mutex
	closed bool
}

// Dial connects to addr and returns a ready-to-use Client.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	o := newClientOptions()
	for _, opt := range opts {
		opt(o)
	}
	nc, err := net.DialTimeout("tcp", addr, o.dialTimeout)
	if err != nil {
		return nil, qwrpcerrors.TransportErrorf("dial %s: %v", addr, err)
	}
	o.logger.Info("qwrpc client connected", zap.String("addr", addr))
	return &Client{conn: transport.NewConn(nc), opts: o}, nil
}

// Call invokes method id with args and decodes the result as R. It
// blocks until the server replies or the connection fails.
func Call[R any](c *Client, id string, args ...interface{}) (R, error) {
	var zero R
	retTag, err := serialize.TagOf[R]()
	if err != nil {
		return zero, err
	}

	reqPayload, err := c.buildRequestPayload(id, retTag, args)
	if err != nil {
		return zero, err
	}

	respPayload, err := c.roundTrip(reqPayload)
	if err != nil {
		return zero, err
	}

	resp, err := parseResponse(respPayload)
	if err != nil {
		return zero, err
	}
	if !resp.success {
		return zero, resp.err
	}
	return decodeReturn[R](resp.ret)
}

// Future is a handle to an in-flight AsyncCall, the qwrpc analogue of the
// original's bare std::future<R>: it is created already running on a
// background goroutine and Wait blocks for (or multiplexes a ctx
// cancellation against) its completion.
type Future[R any] struct {
	done   chan struct{}
	result R
	err    error
}

// Wait blocks until the call completes or ctx is done, whichever comes
// first. A ctx cancellation only stops the caller from waiting longer -
// per spec.md's explicit non-goal of client-side handler cancellation,
// it cannot abort a call already in flight on the wire.
func (c *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// AsyncCall dispatches method id with args on a background goroutine and
// returns immediately with a handle to await the result. The underlying
// connection remains single-threaded: outstanding async calls on one
// Client still transmit their frames one at a time, under callMu.
func AsyncCall[R any](c *Client, id string, args ...interface{}) *Future[R] {
	call := &Future[R]{done: make(chan struct{})}
	go func() {
		defer close(call.done)
		call.result, call.err = Call[R](c, id, args...)
	}()
	return call
}

func (c *Client) buildRequestPayload(id, retTag string, args []interface{}) ([]byte, error) {
	pl := make(serialize.ParamList, 0, len(args))
	for _, a := range args {
		d, err := serializeArg(a)
		if err != nil {
			return nil, err
		}
		pl = append(pl, d)
	}
	return buildRequest(id, retTag, pl.ToEnvelopeArray())
}

// serializeArg encodes an argument passed as interface{} to Call/AsyncCall,
// using its registered dynamic type. Generic Call[R] can only fix the
// return type at the call site - arguments arrive type-erased through
// the variadic args ...interface{} - so encoding them falls back to the
// reflect-based path shared with the server's reflected handler dispatch.
func serializeArg(v interface{}) (serialize.Data, error) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	return serialize.EncodeValue(rt, rv)
}

func decodeReturn[R any](ret []interface{}) (R, error) {
	var zero R
	pl, ok := serialize.ParamListFromEnvelopeArray(ret)
	if !ok {
		return zero, qwrpcerrors.EncodingErrorf(qwrpcerrors.MessageInvalidArgument, "malformed return array")
	}
	if len(pl) == 0 {
		return zero, nil
	}
	return serialize.Deserialize[R](pl[0])
}

// roundTrip sends payload as one frame and returns the single response
// frame, holding callMu for the whole send-then-recv pair.
func (c *Client) roundTrip(payload []byte) ([]byte, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if c.closed {
		return nil, qwrpcerrors.TransportErrorf("call on a closed client")
	}
	if err := c.conn.Send(payload); err != nil {
		return nil, err
	}
	return c.conn.Recv()
}

// Close sends the "quit" sentinel best-effort and closes the underlying
// connection. It is idempotent.
func (c *Client) Close() error {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.Quit()
	return c.conn.Close()
}
