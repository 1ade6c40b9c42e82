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

// Package serialize is the type-tagged serialization engine: it converts a
// value of a registered Go type to and from a Data (a type tag plus an
// opaque byte payload), dispatching by the value's registered category the
// way the original qwrpc dispatches by compile-time type-list membership.
//
// Tags are never derived from reflect.Type.Name() - per the protocol's
// open question on tag stability, every type is registered with an
// explicit, caller-chosen tag at init time. A missing registration is
// reported before anything reaches the wire: TagOf/TagOfType (and so
// qwrpc.NewHandlerMethod) return an error, and RegisterContainer panics
// on an unregistered element type.
package serialize

import (
	"fmt"
	"reflect"
	"sync"
)

type category uint8

const (
	categoryString category = iota
	categoryFixed
	categoryContainer
	categoryCodec
)

type typeInfo struct {
	tag      string
	category category
	rtype    reflect.Type
	elem     *typeInfo
	codec    codecAdapter
}

var (
	registryMu sync.RWMutex
	byType     = map[reflect.Type]*typeInfo{}
	stringType = reflect.TypeOf("")
)

// Void is the unit type: the return type of a handler that produces no
// value. Its wire tag is "void" and its payload is always empty.
type Void struct{}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	register(reflect.TypeOf(int32(0)), &typeInfo{tag: "int", category: categoryFixed, rtype: reflect.TypeOf(int32(0))})
	register(reflect.TypeOf(int64(0)), &typeInfo{tag: "int64", category: categoryFixed, rtype: reflect.TypeOf(int64(0))})
	register(reflect.TypeOf(float64(0)), &typeInfo{tag: "double", category: categoryFixed, rtype: reflect.TypeOf(float64(0))})
	register(reflect.TypeOf(false), &typeInfo{tag: "bool", category: categoryFixed, rtype: reflect.TypeOf(false)})
	register(stringType, &typeInfo{tag: "string", category: categoryString, rtype: stringType})
	register(reflect.TypeOf(Void{}), &typeInfo{tag: "void", category: categoryFixed, rtype: reflect.TypeOf(Void{})})
}

func register(rt reflect.Type, info *typeInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	byType[rt] = info
}

func lookupByType(rt reflect.Type) (*typeInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := byType[rt]
	return info, ok
}

// RegisterType registers T under tag as a fixed-width, trivially-copyable
// type: a numeric kind, bool, a fixed-size array, or a struct composed
// entirely of such fields. It panics if T's layout is not fixed-size,
// since that failure can only ever be a programming error caught at
// registration, not a runtime one.
func RegisterType[T any](tag string) {
	rt := typeOf[T]()
	if !isFixedSize(rt) {
		panic(fmt.Sprintf("serialize: RegisterType[%s]: type is not fixed-size/trivially-copyable", rt))
	}
	register(rt, &typeInfo{tag: tag, category: categoryFixed, rtype: rt})
}

// RegisterContainer registers S (which must be a slice type, e.g. []C) as
// a container whose element type must already be registered - by
// RegisterType, RegisterContainer, or RegisterCodec. It panics if S is
// not a slice type or its element type is unregistered, for the same
// reason RegisterType panics on a bad layout: this is load-time
// misconfiguration, not a wire-time failure.
func RegisterContainer[S any](tag string) {
	rt := typeOf[S]()
	if rt.Kind() != reflect.Slice {
		panic(fmt.Sprintf("serialize: RegisterContainer[%s]: not a slice type", rt))
	}
	elemInfo, ok := lookupByType(rt.Elem())
	if !ok {
		panic(fmt.Sprintf("serialize: RegisterContainer[%s]: element type %s is not registered", rt, rt.Elem()))
	}
	register(rt, &typeInfo{tag: tag, category: categoryContainer, rtype: rt, elem: elemInfo})
}

// Codec is the extension point for types the default categories cannot
// serve - typically a type holding indirect storage that is not safe to
// ship as a raw byte image.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

type codecAdapter interface {
	encode(v interface{}) ([]byte, error)
	decode(b []byte) (interface{}, error)
}

type codecAdapterImpl[T any] struct {
	codec Codec[T]
}

func (a codecAdapterImpl[T]) encode(v interface{}) ([]byte, error) {
	return a.codec.Encode(v.(T))
}

func (a codecAdapterImpl[T]) decode(b []byte) (interface{}, error) {
	return a.codec.Decode(b)
}

// RegisterCodec registers a user-supplied Codec for T under tag,
// overriding whatever the default fixed/container dispatch would have
// done. This is required for types that are not trivially copyable, e.g.
// ones holding a string, map, or pointer field.
func RegisterCodec[T any](tag string, codec Codec[T]) {
	rt := typeOf[T]()
	register(rt, &typeInfo{tag: tag, category: categoryCodec, rtype: rt, codec: codecAdapterImpl[T]{codec: codec}})
}

// TagOf returns the wire type tag registered for T, or an error if T has
// no registration.
func TagOf[T any]() (string, error) {
	return TagOfType(typeOf[T]())
}

// TagOfType is the reflect.Type counterpart to TagOf, used by qwrpc's
// reflected handler dispatch (qwrpc.NewHandlerMethod), which only has a
// handler's argument and return types as reflect.Type values, not as
// compile-time type parameters.
func TagOfType(rt reflect.Type) (string, error) {
	info, ok := lookupByType(rt)
	if !ok {
		return "", fmt.Errorf("serialize: type %s has no registered tag", rt)
	}
	return info.tag, nil
}

// EncodeValue is the reflect.Value counterpart to Serialize: it serializes
// rv, whose type must be rt, using rt's registered category.
func EncodeValue(rt reflect.Type, rv reflect.Value) (Data, error) {
	info, ok := lookupByType(rt)
	if !ok {
		return Data{}, fmt.Errorf("serialize: type %s has no registered tag", rt)
	}
	return encodeValue(info, rv)
}

// DecodeValue is the reflect.Type counterpart to Deserialize: it decodes
// payload into a value of type rt, using rt's registered category.
func DecodeValue(rt reflect.Type, payload []byte) (reflect.Value, error) {
	info, ok := lookupByType(rt)
	if !ok {
		return reflect.Value{}, fmt.Errorf("serialize: type %s has no registered tag", rt)
	}
	return decodeValue(info, payload)
}

func typeOf[T any]() reflect.Type {
	var zero T
	if rt := reflect.TypeOf(zero); rt != nil {
		return rt
	}
	return reflect.TypeOf((*T)(nil)).Elem()
}

func isFixedSize(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isFixedSize(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if !isFixedSize(rt.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
