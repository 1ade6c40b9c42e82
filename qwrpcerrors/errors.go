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

package qwrpcerrors

import (
	"bytes"
	"fmt"
)

// IsQwrpcError returns true if the given error is a non-nil qwrpc error.
func IsQwrpcError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*qwrpcError)
	return ok
}

// ErrorCode returns the Code for the given error, or CodeOK if the given
// error is not a qwrpc error.
func ErrorCode(err error) Code {
	qe, ok := err.(*qwrpcError)
	if !ok {
		return CodeOK
	}
	return qe.Code
}

// ErrorMessage returns the wire message constant for the given error, or ""
// if the given error is not a qwrpc error.
func ErrorMessage(err error) Message {
	qe, ok := err.(*qwrpcError)
	if !ok {
		return ""
	}
	return qe.WireMessage
}

// ExpectedArgs returns the side data attached to a TypeMismatch error raised
// because check_args refused the call, or nil otherwise.
func ExpectedArgs(err error) []string {
	qe, ok := err.(*qwrpcError)
	if !ok {
		return nil
	}
	return qe.ExpectedArgs
}

// ExpectedRet returns the side data attached to a TypeMismatch error raised
// because check_ret refused the call, or "" otherwise.
func ExpectedRet(err error) string {
	qe, ok := err.(*qwrpcError)
	if !ok {
		return ""
	}
	return qe.ExpectedRet
}

// qwrpcError is the unexported implementation backing every error this
// package returns; callers only ever see the error interface.
type qwrpcError struct {
	Code         Code
	WireMessage  Message
	Detail       string
	ExpectedArgs []string
	ExpectedRet  string
}

func (e *qwrpcError) Error() string {
	buf := bytes.NewBufferString("qwrpc: code:")
	buf.WriteString(e.Code.String())
	if e.WireMessage != "" {
		buf.WriteString(" message:")
		buf.WriteString(string(e.WireMessage))
	}
	if e.Detail != "" {
		buf.WriteString(" detail:")
		buf.WriteString(e.Detail)
	}
	return buf.String()
}

// TransportErrorf builds a CodeTransport error: socket failure, bad frame
// magic, or a short read/write.
func TransportErrorf(format string, args ...interface{}) error {
	return &qwrpcError{Code: CodeTransport, Detail: fmt.Sprintf(format, args...)}
}

// EncodingErrorf builds a CodeEncoding error: the envelope failed to parse
// or a required field was missing or ill-typed.
func EncodingErrorf(msg Message, format string, args ...interface{}) error {
	return &qwrpcError{Code: CodeEncoding, WireMessage: msg, Detail: fmt.Sprintf(format, args...)}
}

// UnknownMethodErrorf builds a CodeUnknownMethod error for an unregistered
// method id.
func UnknownMethodErrorf(id string) error {
	return &qwrpcError{
		Code:        CodeUnknownMethod,
		WireMessage: MessageUnknownID,
		Detail:      fmt.Sprintf("no method registered for id %q", id),
	}
}

// TypeMismatchArgsErrorf builds a CodeTypeMismatch error raised by
// check_args, carrying the method's expected argument tags.
func TypeMismatchArgsErrorf(expected []string) error {
	return &qwrpcError{
		Code:         CodeTypeMismatch,
		WireMessage:  MessageInvalidArgument,
		Detail:       "argument tags did not match the registered method signature",
		ExpectedArgs: expected,
	}
}

// TypeMismatchRetErrorf builds a CodeTypeMismatch error raised by
// check_ret, carrying the method's declared return tag.
func TypeMismatchRetErrorf(expected string) error {
	return &qwrpcError{
		Code:        CodeTypeMismatch,
		WireMessage: MessageInvalidExpectedRet,
		Detail:      "expected_ret did not match the registered method's return tag",
		ExpectedRet: expected,
	}
}

// HandlerFailureErrorf builds a CodeHandlerFailure error carrying the
// handler's own error text.
func HandlerFailureErrorf(format string, args ...interface{}) error {
	return &qwrpcError{Code: CodeHandlerFailure, WireMessage: MessageInvokeError, Detail: fmt.Sprintf(format, args...)}
}

// SerializerFailureErrorf builds a CodeSerializerFailure error: a
// deserialize call on a fixed-width type saw a length mismatch, or a
// user-supplied Codec refused the payload.
func SerializerFailureErrorf(format string, args ...interface{}) error {
	return &qwrpcError{Code: CodeSerializerFailure, Detail: fmt.Sprintf(format, args...)}
}

// FromFailure reconstructs the client-visible error from a failure
// envelope's fields, the inverse of the constructors above.
func FromFailure(msg Message, detail string, expectedArgs []string, expectedRet string) error {
	code := codeForMessage(msg)
	if msg == MessageInvalidArgument && len(expectedArgs) > 0 {
		code = CodeTypeMismatch
	}
	return &qwrpcError{
		Code:         code,
		WireMessage:  msg,
		Detail:       detail,
		ExpectedArgs: expectedArgs,
		ExpectedRet:  expectedRet,
	}
}
