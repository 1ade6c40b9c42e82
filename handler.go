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
	"fmt"
	"reflect"

	"go.qwrpc.dev/qwrpc/serialize"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// NewHandlerMethod builds a Method from fn by reflecting its signature,
// the Go counterpart to the original qwrpc's compile-time
// MethodParamList/contains_v template machinery (see spec.md §4.4's
// construct(handler) and §9's note that this becomes either a tagged
// variant or reflected-signature code generation in a rewrite).
//
// fn must be a func whose every parameter type and whose first return
// value's type (if any) is registered with the serialize package. fn may
// optionally return a trailing error, which NewHandlerMethod treats as
// the handler's own failure - reported to the caller as invoke_error -
// rather than as part of the wire return value. A handler with no
// non-error return value is registered with the "void" tag.
func NewHandlerMethod(fn interface{}) (*Method, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("qwrpc: NewHandlerMethod: %T is not a function", fn)
	}

	numIn := ft.NumIn()
	argTypes := make([]reflect.Type, numIn)
	argTags := make([]string, numIn)
	for i := 0; i < numIn; i++ {
		argTypes[i] = ft.In(i)
		tag, err := serialize.TagOfType(argTypes[i])
		if err != nil {
			return nil, fmt.Errorf("qwrpc: NewHandlerMethod: argument %d: %w", i, err)
		}
		argTags[i] = tag
	}

	numOut := ft.NumOut()
	hasErr := numOut > 0 && ft.Out(numOut-1) == errorType
	valueOuts := numOut
	if hasErr {
		valueOuts--
	}
	if valueOuts > 1 {
		return nil, fmt.Errorf("qwrpc: NewHandlerMethod: %T has more than one non-error return value", fn)
	}

	var retType reflect.Type
	var retTag string
	if valueOuts == 0 {
		retType = reflect.TypeOf(serialize.Void{})
		retTag = "void"
	} else {
		retType = ft.Out(0)
		tag, err := serialize.TagOfType(retType)
		if err != nil {
			return nil, fmt.Errorf("qwrpc: NewHandlerMethod: return value: %w", err)
		}
		retTag = tag
	}

	invoke := func(pl serialize.ParamList) (serialize.ParamList, error) {
		in := make([]reflect.Value, numIn)
		for i, d := range pl {
			v, err := serialize.DecodeValue(argTypes[i], d.Payload)
			if err != nil {
				return nil, err
			}
			in[i] = v
		}
		out := fv.Call(in)
		if hasErr {
			errVal := out[len(out)-1]
			if !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
			out = out[:len(out)-1]
		}
		if len(out) == 0 {
			return serialize.ParamList{}, nil
		}
		d, err := serialize.EncodeValue(retType, out[0])
		if err != nil {
			return nil, err
		}
		return serialize.ParamList{d}, nil
	}

	return NewMethod(argTags, retTag, invoke), nil
}
