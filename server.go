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
	"io"
	"net"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"go.qwrpc.dev/qwrpc/qwrpcerrors"
	"go.qwrpc.dev/qwrpc/transport"
	"go.qwrpc.dev/qwrpc/workerpool"
)

// Server accepts TCP connections and dispatches framed requests against
// a Registry, the way rpc_server.hpp's rpc_server does in the original:
// one accept loop on the caller's goroutine, one worker-pool task per
// accepted connection, and each worker running READY -> DISPATCH ->
// REPLY until the client sends the "quit" sentinel or the socket fails.
type Server struct {
	addr     string
	registry Registry
	opts     *serverOptions
	pool     *workerpool.Pool

	addrMu   sync.Mutex
	listener net.Listener
	running  *atomic.Bool
	done     chan struct{}
}

// NewServer builds a Server that will listen on addr and dispatch
// against registry. The registry is expected to be fully populated
// before Start is called; per spec.md §5, it is read-only afterward.
func NewServer(addr string, registry Registry, opts ...ServerOption) *Server {
	o := newServerOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Server{
		addr:     addr,
		registry: registry,
		opts:     o,
		running:  atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

// Start binds the configured address and runs the accept loop on the
// calling goroutine until Stop is called or the listener fails. It
// returns the error that ended the loop, or nil after a clean Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return qwrpcerrors.TransportErrorf("listen on %s: %v", s.addr, err)
	}
	s.addrMu.Lock()
	s.listener = ln
	s.addrMu.Unlock()
	s.pool = workerpool.New(s.opts.poolSize,
		workerpool.WithLogger(s.opts.logger),
		workerpool.WithHighWaterMark(s.opts.highWaterMark))
	s.running.Store(true)

	s.opts.logger.Info("qwrpc server started", zap.String("addr", ln.Addr().String()), zap.Int("pool_size", s.opts.poolSize))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			return qwrpcerrors.TransportErrorf("accept: %v", err)
		}
		c := conn
		if submitErr := s.pool.Submit(func() { s.serveConn(c) }); submitErr != nil {
			s.opts.logger.Warn("dropping connection: worker pool is stopped", zap.Error(submitErr))
			c.Close()
		}
	}
}

// Addr returns the address the server is listening on. It is only valid
// after Start has begun accepting.
func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and the worker pool, letting in-flight
// requests finish. It is idempotent.
func (s *Server) Stop() error {
	if !s.running.CAS(true, false) {
		return nil
	}
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	s.opts.logger.Info("qwrpc server stopped")
	return err
}

// serveConn runs one connection's READY -> DISPATCH -> REPLY loop until
// the client quits or the socket fails.
func (s *Server) serveConn(nc net.Conn) {
	defer nc.Close()
	conn := transport.NewConn(nc)
	logger := s.opts.logger.With(zap.String("remote_addr", nc.RemoteAddr().String()))
	logger.Info("accepted connection")

	for {
		payload, err := conn.Recv()
		if err != nil {
			if err != io.EOF {
				logger.Warn("connection closed with error", zap.Error(err))
			}
			return
		}
		if string(payload) == transport.QuitSentinel {
			logger.Info("client requested quit")
			return
		}

		resp := s.dispatch(payload, logger)
		if err := conn.Send(resp); err != nil {
			logger.Warn("failed to send response", zap.Error(err))
			return
		}
	}
}

// dispatch runs the algorithm of spec.md §4.5 against one request
// payload and returns the encoded response payload. Every recoverable
// failure - a bad envelope, an unknown id, a type mismatch, a handler
// error - is converted to a failure envelope here; only transport
// failures reaching serveConn end the connection.
func (s *Server) dispatch(payload []byte, logger *zap.Logger) []byte {
	req, err := parseRequest(payload)
	if err != nil {
		logger.Warn("request failed to parse", zap.Error(err))
		return s.encodeFailure(err, logger)
	}
	reqLogger := logger.With(zap.String("method_id", req.id))

	method, ok := s.registry.Lookup(req.id)
	if !ok {
		err := qwrpcerrors.UnknownMethodErrorf(req.id)
		reqLogger.Warn("unknown method id")
		return s.encodeFailure(err, reqLogger)
	}

	if !method.CheckArgs(req.args) {
		err := qwrpcerrors.TypeMismatchArgsErrorf(method.ExpectedArgs())
		reqLogger.Warn("argument type mismatch", zap.Strings("expected_args", method.ExpectedArgs()))
		return s.encodeFailure(err, reqLogger)
	}

	if req.hasExpRet && !method.CheckRet(req.expectedRet) {
		err := qwrpcerrors.TypeMismatchRetErrorf(method.ExpectedRet())
		reqLogger.Warn("expected_ret mismatch", zap.String("expected_ret", method.ExpectedRet()))
		return s.encodeFailure(err, reqLogger)
	}

	ret, err := method.Call(req.args)
	if err != nil {
		reqLogger.Warn("handler invocation failed", zap.Error(err))
		return s.encodeFailure(err, reqLogger)
	}

	respPayload, err := buildSuccessResponse(ret.ToEnvelopeArray())
	if err != nil {
		reqLogger.Error("failed to encode success response", zap.Error(err))
		return s.encodeFailure(qwrpcerrors.EncodingErrorf(qwrpcerrors.MessageUnknownError, "%v", err), reqLogger)
	}
	return respPayload
}

func (s *Server) encodeFailure(err error, logger *zap.Logger) []byte {
	payload, encErr := buildFailureResponse(err)
	if encErr != nil {
		logger.Error("failed to encode failure response", zap.Error(multierr.Append(err, encErr)))
		// Fall back to a minimal, hand-built failure document so the
		// client still gets a well-formed frame.
		payload = []byte(`{"status":"failed","message":"unknown_error"}`)
	}
	return payload
}
