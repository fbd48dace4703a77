// Package lazy provides the compute-once and get-or-add primitives used by
// symbol caches.
//
// All primitives tolerate redundant concurrent computation: several
// goroutines may run the same initializer, but only the first published
// value is ever observed. Initializers must therefore be pure functions of
// immutable inputs.
package lazy

import "sync/atomic"

// Cell holds a value that is computed on first access.
// The zero value is ready to use.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// Get returns the published value, running init when nothing has been
// published yet. Racing callers all observe the winner of the CAS.
func (c *Cell[T]) Get(init func() T) T {
	if v := c.p.Load(); v != nil {
		return *v
	}
	v := init()
	if c.p.CompareAndSwap(nil, &v) {
		return v
	}
	return *c.p.Load()
}

// Peek reports the published value without computing it.
func (c *Cell[T]) Peek() (T, bool) {
	if v := c.p.Load(); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Initialized reports whether a value has been published.
func (c *Cell[T]) Initialized() bool {
	return c.p.Load() != nil
}
