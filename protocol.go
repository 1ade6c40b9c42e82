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

// This file builds and parses the request/response envelope documents
// described in spec.md §3 and §6, on top of the opaque envelope.Node
// tree. Apart from the hand-built fallback failure document in
// server.go's encodeFailure, it is the only file in the package that
// knows the field names "id", "args", "status", and so on.
package qwrpc

import (
	"go.qwrpc.dev/qwrpc/envelope"
	"go.qwrpc.dev/qwrpc/qwrpcerrors"
)

const (
	fieldID           = "id"
	fieldExpectedRet  = "expected_ret"
	fieldArgs         = "args"
	fieldStatus       = "status"
	fieldReturn       = "return"
	fieldMessage      = "message"
	fieldExpectedArgs = "expected_args"
	fieldCzhError     = "czh_error"
	fieldQwrpcError   = "qwrpc_error"

	statusSuccess = "success"
	statusFailed  = "failed"
)

// buildRequest renders a call's (method id, argument array, expected
// return tag) as the request envelope's wire text.
func buildRequest(id string, expectedRet string, args []interface{}) ([]byte, error) {
	if args == nil {
		args = []interface{}{}
	}
	node := envelope.Node{
		fieldID:   id,
		fieldArgs: args,
	}
	if expectedRet != "" {
		node[fieldExpectedRet] = expectedRet
	}
	return envelope.Encode(node)
}

// parsedRequest is the validated view of a request document.
type parsedRequest struct {
	id          string
	expectedRet string
	hasExpRet   bool
	args        []interface{}
}

// parseRequest decodes and validates a request payload per spec.md
// §4.5's dispatch steps 1-2.
func parseRequest(payload []byte) (*parsedRequest, error) {
	node, err := envelope.Decode(payload)
	if err != nil {
		return nil, qwrpcerrors.EncodingErrorf(qwrpcerrors.MessageInvalidRequest, "%v", err)
	}
	id, ok := node.String(fieldID)
	if !ok {
		return nil, qwrpcerrors.EncodingErrorf(qwrpcerrors.MessageInvalidMethodID, "missing or non-string %q field", fieldID)
	}
	args, ok := node.Array(fieldArgs)
	if !ok {
		return nil, qwrpcerrors.EncodingErrorf(qwrpcerrors.MessageInvalidArgument, "missing or non-array %q field", fieldArgs)
	}
	req := &parsedRequest{id: id, args: args}
	if ret, ok := node.String(fieldExpectedRet); ok {
		req.expectedRet = ret
		req.hasExpRet = true
	}
	return req, nil
}

// buildSuccessResponse renders a successful call's return array as the
// response envelope's wire text.
func buildSuccessResponse(ret []interface{}) ([]byte, error) {
	if ret == nil {
		ret = []interface{}{}
	}
	return envelope.Encode(envelope.Node{
		fieldStatus: statusSuccess,
		fieldReturn: ret,
	})
}

// buildFailureResponse renders err - a qwrpcerrors error - as a failure
// response envelope, populating whichever side fields apply.
func buildFailureResponse(err error) ([]byte, error) {
	node := envelope.Node{
		fieldStatus:  statusFailed,
		fieldMessage: string(qwrpcerrors.ErrorMessage(err)),
	}
	if args := qwrpcerrors.ExpectedArgs(err); args != nil {
		node[fieldExpectedArgs] = envelope.NewStringArray(args)
	}
	if ret := qwrpcerrors.ExpectedRet(err); ret != "" {
		node[fieldExpectedRet] = ret
	}
	switch qwrpcerrors.ErrorCode(err) {
	case qwrpcerrors.CodeEncoding:
		node[fieldCzhError] = err.Error()
	default:
		node[fieldQwrpcError] = err.Error()
	}
	return envelope.Encode(node)
}

// parsedResponse is the validated view of a response document.
type parsedResponse struct {
	success bool
	ret     []interface{}
	err     error
}

// parseResponse decodes a response payload into either a successful
// return array or the error the server reported.
func parseResponse(payload []byte) (*parsedResponse, error) {
	node, err := envelope.Decode(payload)
	if err != nil {
		return nil, qwrpcerrors.TransportErrorf("parse response: %v", err)
	}
	status, ok := node.String(fieldStatus)
	if !ok {
		return nil, qwrpcerrors.TransportErrorf("response missing %q field", fieldStatus)
	}
	switch status {
	case statusSuccess:
		ret, _ := node.Array(fieldReturn)
		return &parsedResponse{success: true, ret: ret}, nil
	case statusFailed:
		msg, _ := node.String(fieldMessage)
		var detail string
		if d, ok := node.String(fieldCzhError); ok {
			detail = d
		} else if d, ok := node.String(fieldQwrpcError); ok {
			detail = d
		}
		expectedArgs, _ := node.StringArray(fieldExpectedArgs)
		expectedRet, _ := node.String(fieldExpectedRet)
		return &parsedResponse{
			success: false,
			err:     qwrpcerrors.FromFailure(qwrpcerrors.Message(msg), detail, expectedArgs, expectedRet),
		}, nil
	default:
		return nil, qwrpcerrors.TransportErrorf("response has unrecognized status %q", status)
	}
}
