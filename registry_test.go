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

package qwrpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.qwrpc.dev/qwrpc"
)

func TestMapRegistryRegisterAndLookup(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func(a int32) (int32, error) { return a, nil })
	require.NoError(t, err)

	reg.Register("identity", m)

	got, ok := reg.Lookup("identity")
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestMapRegistryLookupMiss(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}

func TestMapRegistryRegisterReplacesExisting(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	first, err := qwrpc.NewHandlerMethod(func() (int32, error) { return 1, nil })
	require.NoError(t, err)
	second, err := qwrpc.NewHandlerMethod(func() (int32, error) { return 2, nil })
	require.NoError(t, err)

	reg.Register("m", first)
	reg.Register("m", second)

	got, ok := reg.Lookup("m")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestMapRegistryNames(t *testing.T) {
	reg := qwrpc.NewMapRegistry()
	m, err := qwrpc.NewHandlerMethod(func() (int32, error) { return 1, nil })
	require.NoError(t, err)
	reg.Register("a", m)
	reg.Register("b", m)

	assert.ElementsMatch(t, []string{"a", "b"}, reg.Names())
}
