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

package serialize

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"reflect"

	"go.qwrpc.dev/qwrpc/envelope"
	"go.qwrpc.dev/qwrpc/qwrpcerrors"
)

// Data is the universal wire form of any argument or return value that
// isn't a bare envelope leaf: a type tag plus the opaque bytes that
// Deserialize needs to rebuild the native value. It is created when a
// native value is encoded for transmission or parsed off the wire, and is
// never mutated afterward.
type Data struct {
	Tag     string
	Payload []byte
}

// ParamList is an ordered sequence of tagged values: one call's argument
// list, or a handler's single-element (or empty) return.
type ParamList []Data

// Serialize encodes v using T's registered category.
func Serialize[T any](v T) (Data, error) {
	if s, ok := any(v).(string); ok {
		return Data{Tag: "string", Payload: []byte(s)}, nil
	}
	rt := typeOf[T]()
	info, ok := lookupByType(rt)
	if !ok {
		return Data{}, qwrpcerrors.SerializerFailureErrorf("serialize: type %s has no registered tag", rt)
	}
	return encodeValue(info, reflect.ValueOf(v))
}

// Deserialize decodes d's payload back into a T, per T's registered
// category. It fails with a CodeSerializerFailure error if d's payload
// length does not match a fixed-size T, or if a user Codec refuses it.
func Deserialize[T any](d Data) (T, error) {
	var zero T
	if _, ok := any(zero).(string); ok {
		return any(string(d.Payload)).(T), nil
	}
	rt := typeOf[T]()
	info, ok := lookupByType(rt)
	if !ok {
		return zero, qwrpcerrors.SerializerFailureErrorf("deserialize: type %s has no registered tag", rt)
	}
	val, err := decodeValue(info, d.Payload)
	if err != nil {
		return zero, err
	}
	return val.Interface().(T), nil
}

func encodeValue(info *typeInfo, rv reflect.Value) (Data, error) {
	switch info.category {
	case categoryString:
		return Data{Tag: info.tag, Payload: []byte(rv.String())}, nil
	case categoryFixed:
		var buf bytes.Buffer
		if err := binary.Write(&buf, binary.BigEndian, rv.Interface()); err != nil {
			return Data{}, qwrpcerrors.SerializerFailureErrorf("serialize %s: %v", info.tag, err)
		}
		return Data{Tag: info.tag, Payload: buf.Bytes()}, nil
	case categoryContainer:
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elemData, err := encodeValue(info.elem, rv.Index(i))
			if err != nil {
				return Data{}, err
			}
			items[i] = base64.StdEncoding.EncodeToString(elemData.Payload)
		}
		text, err := envelope.Encode(envelope.Node{"items": envelope.NewStringArray(items)})
		if err != nil {
			return Data{}, qwrpcerrors.SerializerFailureErrorf("serialize container %s: %v", info.tag, err)
		}
		return Data{Tag: info.tag, Payload: text}, nil
	case categoryCodec:
		b, err := info.codec.encode(rv.Interface())
		if err != nil {
			return Data{}, qwrpcerrors.SerializerFailureErrorf("serialize %s: %v", info.tag, err)
		}
		return Data{Tag: info.tag, Payload: b}, nil
	default:
		return Data{}, qwrpcerrors.SerializerFailureErrorf("serialize: unknown category for %s", info.tag)
	}
}

func decodeValue(info *typeInfo, payload []byte) (reflect.Value, error) {
	switch info.category {
	case categoryString:
		return reflect.ValueOf(string(payload)).Convert(info.rtype), nil
	case categoryFixed:
		size := binary.Size(reflect.New(info.rtype).Elem().Interface())
		if size < 0 || len(payload) != size {
			return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf(
				"deserialize %s: expected %d bytes, got %d", info.tag, size, len(payload))
		}
		ptr := reflect.New(info.rtype)
		if err := binary.Read(bytes.NewReader(payload), binary.BigEndian, ptr.Interface()); err != nil {
			return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize %s: %v", info.tag, err)
		}
		return ptr.Elem(), nil
	case categoryContainer:
		node, err := envelope.Decode(payload)
		if err != nil {
			return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize container %s: %v", info.tag, err)
		}
		items, ok := node.StringArray("items")
		if !ok {
			return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize container %s: missing items array", info.tag)
		}
		out := reflect.MakeSlice(info.rtype, 0, len(items))
		for _, it := range items {
			raw, err := base64.StdEncoding.DecodeString(it)
			if err != nil {
				return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize container %s: %v", info.tag, err)
			}
			elemVal, err := decodeValue(info.elem, raw)
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, elemVal)
		}
		return out, nil
	case categoryCodec:
		v, err := info.codec.decode(payload)
		if err != nil {
			return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize %s: %v", info.tag, err)
		}
		return reflect.ValueOf(v), nil
	default:
		return reflect.Value{}, qwrpcerrors.SerializerFailureErrorf("deserialize: unknown category for %s", info.tag)
	}
}

// ToEnvelopeArray renders a ParamList as the flat [tag, payload, tag,
// payload, ...] array the protocol's Tagged-value encoding describes,
// with every payload carried as base64 text so it survives the envelope
// codec's string leaf regardless of whether the underlying bytes are
// already valid UTF-8.
func (p ParamList) ToEnvelopeArray() []interface{} {
	out := make([]interface{}, 0, len(p)*2)
	for _, d := range p {
		out = append(out, d.Tag, base64.StdEncoding.EncodeToString(d.Payload))
	}
	return out
}

// ParamListFromEnvelopeArray parses the flat tagged-value array back into
// a ParamList. It returns ok=false if the array's length is odd, if any
// even-indexed element isn't a string, or if any payload isn't valid
// base64 - all symptoms of a malformed or tampered envelope.
func ParamListFromEnvelopeArray(arr []interface{}) (ParamList, bool) {
	if len(arr)%2 != 0 {
		return nil, false
	}
	out := make(ParamList, 0, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		tag, ok := arr[i].(string)
		if !ok {
			return nil, false
		}
		payloadStr, ok := arr[i+1].(string)
		if !ok {
			return nil, false
		}
		payload, err := base64.StdEncoding.DecodeString(payloadStr)
		if err != nil {
			return nil, false
		}
		out = append(out, Data{Tag: tag, Payload: payload})
	}
	return out, true
}
