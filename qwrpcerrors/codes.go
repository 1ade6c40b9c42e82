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

// Package qwrpcerrors defines the error taxonomy shared by the qwrpc client
// and server, mirroring the wire-level "message" constants of the protocol
// envelope (§7 of the protocol note) as a single Go error type.
package qwrpcerrors

// Code classifies a qwrpc error the way the protocol's error kind constants
// classify a failure envelope. CodeOK is never attached to an error; it is
// only returned by ErrorCode for a nil or non-qwrpc error.
type Code uint8

const (
	// CodeOK is not a real error; ErrorCode returns it for nil/non-qwrpc errors.
	CodeOK Code = iota
	// CodeTransport covers socket failures, bad frame magic, and short reads/writes.
	CodeTransport
	// CodeEncoding covers envelope parse failures and missing/ill-typed fields.
	CodeEncoding
	// CodeTypeMismatch covers check_args/check_ret refusals.
	CodeTypeMismatch
	// CodeUnknownMethod covers a request for an unregistered method id.
	CodeUnknownMethod
	// CodeHandlerFailure covers a registered handler returning an error.
	CodeHandlerFailure
	// CodeSerializerFailure covers a deserialize call rejecting its input.
	CodeSerializerFailure
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeTransport:
		return "transport"
	case CodeEncoding:
		return "encoding"
	case CodeTypeMismatch:
		return "type_mismatch"
	case CodeUnknownMethod:
		return "unknown_method"
	case CodeHandlerFailure:
		return "handler_failure"
	case CodeSerializerFailure:
		return "serializer_failure"
	default:
		return "unknown"
	}
}

// Message is one of the wire-level error kind constants carried in a
// failure envelope's "message" field.
type Message string

const (
	MessageInvalidRequest     Message = "invalid_request"
	MessageInvalidMethodID    Message = "invalid_method_id"
	MessageInvalidArgument    Message = "invalid_argument"
	MessageInvalidExpectedRet Message = "invalid_expected_ret"
	MessageUnknownID          Message = "unknown_id"
	MessageInvokeError        Message = "invoke_error"
	MessageUnknownError       Message = "unknown_error"
)

// codeForMessage maps a wire message constant to the Code a client-side
// error should carry once the envelope is turned back into a Go error.
func codeForMessage(m Message) Code {
	switch m {
	case MessageInvalidRequest, MessageInvalidMethodID, MessageInvalidArgument:
		return CodeEncoding
	case MessageInvalidExpectedRet:
		return CodeTypeMismatch
	case MessageUnknownID:
		return CodeUnknownMethod
	case MessageInvokeError:
		return CodeHandlerFailure
	default:
		return CodeEncoding
	}
}
