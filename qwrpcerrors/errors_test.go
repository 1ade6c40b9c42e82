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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsQwrpcError(t *testing.T) {
	assert.True(t, IsQwrpcError(UnknownMethodErrorf("foo")))
	assert.False(t, IsQwrpcError(nil))
	assert.False(t, IsQwrpcError(errors.New("plain")))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"transport", TransportErrorf("closed"), CodeTransport},
		{"encoding", EncodingErrorf(MessageInvalidRequest, "bad yaml"), CodeEncoding},
		{"unknown method", UnknownMethodErrorf("plus"), CodeUnknownMethod},
		{"type mismatch args", TypeMismatchArgsErrorf([]string{"int", "int"}), CodeTypeMismatch},
		{"type mismatch ret", TypeMismatchRetErrorf("int"), CodeTypeMismatch},
		{"handler failure", HandlerFailureErrorf("boom"), CodeHandlerFailure},
		{"serializer failure", SerializerFailureErrorf("short read"), CodeSerializerFailure},
		{"plain error", errors.New("nope"), CodeOK},
		{"nil", nil, CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
}

func TestExpectedArgsAndRet(t *testing.T) {
	err := TypeMismatchArgsErrorf([]string{"int", "int"})
	assert.Equal(t, []string{"int", "int"}, ExpectedArgs(err))
	assert.Empty(t, ExpectedRet(err))

	err = TypeMismatchRetErrorf("int")
	assert.Equal(t, "int", ExpectedRet(err))
	assert.Empty(t, ExpectedArgs(err))

	assert.Nil(t, ExpectedArgs(errors.New("plain")))
	assert.Empty(t, ExpectedRet(errors.New("plain")))
}

func TestFromFailureRoundTrips(t *testing.T) {
	err := FromFailure(MessageInvalidArgument, "mismatch", []string{"int", "int"}, "")
	require.True(t, IsQwrpcError(err))
	assert.Equal(t, CodeTypeMismatch, ErrorCode(err))
	assert.Equal(t, MessageInvalidArgument, ErrorMessage(err))
	assert.Equal(t, []string{"int", "int"}, ExpectedArgs(err))

	err = FromFailure(MessageUnknownID, "no such method", nil, "")
	assert.Equal(t, CodeUnknownMethod, ErrorCode(err))

	err = FromFailure(MessageInvokeError, "handler panicked", nil, "")
	assert.Equal(t, CodeHandlerFailure, ErrorCode(err))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "ok", CodeOK.String())
	assert.Equal(t, "type_mismatch", CodeTypeMismatch.String())
	assert.Equal(t, "unknown", Code(255).String())
}
