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

// Package envelope is the collaborator the rest of qwrpc treats as opaque:
// a named-tree text format whose leaves are one of {int32, int64, double,
// bool, string, null} and ordered arrays of such leaves. qwrpc's request
// and response documents, and the nested subdocuments a serialized
// container produces, are all Nodes under this package's Encode/Decode.
//
// The concrete format is YAML (gopkg.in/yaml.v2); any tree format with the
// same leaf set would satisfy the contract the rest of the package relies
// on.
package envelope

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Node is one envelope document: a named tree of leaves and arrays of
// leaves. Decode never produces nested Nodes for qwrpc's own documents
// (request/response are flat), but arbitrary YAML is accepted on the way
// in, so callers should use the accessors below rather than type-assert
// map values directly.
type Node map[string]interface{}

// Encode renders a Node as its textual wire form.
func Encode(n Node) ([]byte, error) {
	b, err := yaml.Marshal(map[string]interface{}(n))
	if err != nil {
		return nil, fmt.Errorf("envelope: encode: %w", err)
	}
	return b, nil
}

// Decode parses text into a Node, or returns an error describing why the
// text is not a valid document.
func Decode(text []byte) (Node, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(text, &raw); err != nil {
		return nil, fmt.Errorf("envelope: decode: %w", err)
	}
	return Node(raw), nil
}

// String returns the string leaf at key, and whether it was present and
// actually a string.
func (n Node) String(key string) (string, bool) {
	v, ok := n[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Array returns the array at key, and whether it was present and actually
// an array. A missing key is treated as distinct from an empty array by
// the second return value.
func (n Node) Array(key string) ([]interface{}, bool) {
	v, ok := n[key]
	if !ok {
		return nil, false
	}
	switch a := v.(type) {
	case []interface{}:
		return a, true
	case nil:
		return nil, false
	default:
		return nil, false
	}
}

// StringArray returns the array at key with every element coerced to a
// string, or ok=false if the key is absent or any element is not a string.
func (n Node) StringArray(key string) (out []string, ok bool) {
	arr, present := n.Array(key)
	if !present {
		return nil, false
	}
	out = make([]string, len(arr))
	for i, v := range arr {
		s, isStr := v.(string)
		if !isStr {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// NewStringArray builds a Node array value out of a plain []string, for
// callers assembling a document to Encode.
func NewStringArray(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
