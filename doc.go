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

// Package qwrpc is a small, type-safe RPC library: a server registers
// named handler functions of arbitrary argument/return shapes, and a
// client invokes them over a framed TCP connection, getting back
// strongly-typed results. Mismatches between what a client sends and
// what a handler expects are refused before the handler ever runs.
//
// A minimal server:
//
//	registry := qwrpc.NewMapRegistry()
//	m, err := qwrpc.NewHandlerMethod(func(a, b int32) (int32, error) {
//		return a + b, nil
//	})
//	registry.Register("plus", m)
//	srv := qwrpc.NewServer(":9090", registry)
//	go srv.Start()
//
// And the matching client:
//
//	client, err := qwrpc.Dial("127.0.0.1:9090")
//	sum, err := qwrpc.Call[int32](client, "plus", int32(1), int32(1))
//
// See the serialize package for registering the argument/return types a
// handler uses, and examples/qwrpc/server and examples/qwrpc/client for a
// runnable end-to-end demonstration.
package qwrpc
