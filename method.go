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
	"go.qwrpc.dev/qwrpc/qwrpcerrors"
	"go.qwrpc.dev/qwrpc/serialize"
)

// Method is a registered handler: an opaque invoker plus the argument and
// return type tags it was constructed against. Once built by NewMethod, a
// Method is immutable and safe for concurrent use by multiple workers.
type Method struct {
	argTags []string
	retTag  string
	invoke  func(serialize.ParamList) (serialize.ParamList, error)
}

// invoker is the shape every registered handler is reduced to: it accepts
// the call's already-type-checked arguments and returns the encoded
// result, or an error if the handler itself failed.
type invoker func(serialize.ParamList) (serialize.ParamList, error)

// NewMethod wraps argTags/retTag (computed by NewHandlerMethod in
// handler.go from a handler's reflected signature) and fn into a Method.
// It is exported so callers needing handlers NewHandlerMethod can't
// reflect - a variadic handler, say - can still build a conforming
// Method by hand.
func NewMethod(argTags []string, retTag string, fn invoker) *Method {
	tags := make([]string, len(argTags))
	copy(tags, argTags)
	return &Method{argTags: tags, retTag: retTag, invoke: fn}
}

// ExpectedArgs returns the method's declared argument tags, in order.
func (m *Method) ExpectedArgs() []string {
	out := make([]string, len(m.argTags))
	copy(out, m.argTags)
	return out
}

// ExpectedRet returns the method's declared return tag.
func (m *Method) ExpectedRet() string {
	return m.retTag
}

// CheckArgs reports whether envelope array arr, interpreted as a flat
// [tag, payload, tag, payload, ...] sequence, matches the method's
// argument tags element-by-element. A false result means Call must not
// be invoked for this arr.
func (m *Method) CheckArgs(arr []interface{}) bool {
	pl, ok := serialize.ParamListFromEnvelopeArray(arr)
	if !ok {
		return false
	}
	if len(pl) != len(m.argTags) {
		return false
	}
	for i, d := range pl {
		if d.Tag != m.argTags[i] {
			return false
		}
	}
	return true
}

// CheckRet reports whether expectedRet matches the method's declared
// return tag.
func (m *Method) CheckRet(expectedRet string) bool {
	return expectedRet == m.retTag
}

// Call decodes arr into the method's ParamList and invokes the underlying
// handler. Callers must have verified CheckArgs(arr) first; Call does not
// re-check it. Any error the handler itself returns is wrapped as a
// CodeHandlerFailure error carrying the handler's message.
func (m *Method) Call(arr []interface{}) (serialize.ParamList, error) {
	pl, ok := serialize.ParamListFromEnvelopeArray(arr)
	if !ok {
		return nil, qwrpcerrors.TypeMismatchArgsErrorf(m.argTags)
	}
	ret, err := m.invoke(pl)
	if err != nil {
		return nil, qwrpcerrors.HandlerFailureErrorf("%s", err)
	}
	return ret, nil
}
