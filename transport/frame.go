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

// Package transport implements the framed TCP wire format a qwrpc Conn
// speaks: a fixed 12-byte header (a magic constant plus a content
// length) followed by exactly that many bytes of envelope text. It has
// no notion of methods, tags, or envelopes - that belongs to the qwrpc
// package - only of frames.
package transport

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"

	"go.qwrpc.dev/qwrpc/qwrpcerrors"
)

// Magic is the fixed marker every frame header begins with. A peer that
// reads a header with a different value has desynchronized from the
// stream and must treat the connection as unusable.
//
// The protocol's open question on byte order is resolved here: headers
// are always big-endian, regardless of either peer's native order. This
// changes the wire format from the original implementation's host-order
// raw struct image, which only worked between peers of matching
// endianness.
const Magic uint32 = 0x18273645

// QuitSentinel is the literal payload a client sends to request a
// graceful close of its connection. The server does not reply to it.
const QuitSentinel = "quit"

const headerSize = 4 + 8 // magic (uint32) + content_length (uint64)

// WriteFrame writes payload to w as one frame: the Magic header, the
// length of payload, then payload itself.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[0:4], Magic)
	binary.BigEndian.PutUint64(header[4:12], uint64(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return qwrpcerrors.TransportErrorf("%v", errors.Wrap(err, "write frame header"))
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return qwrpcerrors.TransportErrorf("%v", errors.Wrap(err, "write frame payload"))
		}
	}
	return nil
}

// ReadFrame reads one frame from r and returns its payload. It fails with
// a CodeTransport error if the stream closes mid-frame or the magic
// marker doesn't match, per the protocol's requirement that a recipient
// reject a frame with the wrong magic.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, qwrpcerrors.TransportErrorf("%v", errors.Wrap(err, "read frame header"))
	}

	magic := binary.BigEndian.Uint32(header[0:4])
	if magic != Magic {
		return nil, qwrpcerrors.TransportErrorf("bad frame magic: got %#x, want %#x", magic, Magic)
	}

	length := binary.BigEndian.Uint64(header[4:12])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, qwrpcerrors.TransportErrorf("%v", errors.Wrap(err, "read frame payload"))
		}
	}
	return payload, nil
}

// Conn wraps a net.Conn with qwrpc's frame-at-a-time Send/Recv. It has no
// internal synchronization of its own; callers that issue concurrent
// Send/Recv pairs on one Conn (qwrpc.AsyncCall) must serialize
// them externally.
type Conn struct {
	nc net.Conn
}

// NewConn wraps an already-connected net.Conn.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Send writes payload as a single frame.
func (c *Conn) Send(payload []byte) error {
	return WriteFrame(c.nc, payload)
}

// Recv blocks for one full frame and returns its payload.
func (c *Conn) Recv() ([]byte, error) {
	return ReadFrame(c.nc)
}

// Quit sends the graceful-close sentinel. It is best-effort: callers
// tearing down a connection should not treat a failed Quit as fatal.
func (c *Conn) Quit() error {
	return c.Send([]byte(QuitSentinel))
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr returns the address of the peer on the other end of the
// connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
