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

import "sync"

// Registry maps a method id to the Method that serves it. The server
// treats a Registry as read-only once Start has been called. A
// MapRegistry guards its map with a mutex, so registering while the
// server is already serving lookups is also safe.
type Registry interface {
	// Lookup returns the Method registered for id, or ok=false if none is.
	Lookup(id string) (*Method, bool)
}

// Registrar is the write side of a Registry: something callers can
// register named methods against.
type Registrar interface {
	Registry
	// Register adds m under id, replacing any prior registration for the
	// same id.
	Register(id string, m *Method)
}

// MapRegistry is a Registrar backed by a map guarded by a mutex, the
// qwrpc analogue of the teacher's MapRegistry over service/procedure
// pairs - simplified to a flat method-id keyspace since qwrpc has no
// notion of a service name.
type MapRegistry struct {
	mu      sync.RWMutex
	methods map[string]*Method
}

// NewMapRegistry builds an empty MapRegistry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{methods: make(map[string]*Method)}
}

// Register implements Registrar.
func (r *MapRegistry) Register(id string, m *Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[id] = m
}

// Lookup implements Registry.
func (r *MapRegistry) Lookup(id string) (*Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[id]
	return m, ok
}

// Names returns the currently-registered method ids, in no particular
// order. It exists for introspection/debugging, mirroring the teacher's
// ServiceProcedures().
func (r *MapRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.methods))
	for name := range r.methods {
		out = append(out, name)
	}
	return out
}
