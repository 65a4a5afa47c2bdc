// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scopedflag provides a boolean setting that can be overridden for the
// duration of an operation and restored afterwards.
package scopedflag

import (
	"sync"
	"sync/atomic"
)

// Flag is a boolean setting shared by the code that holds a pointer to it.
// The zero value is false and ready to use.
type Flag struct {
	v  atomic.Bool
	mu sync.Mutex // serialises Override and restore
}

// New creates a Flag with the given initial value.
func New(initial bool) *Flag {
	f := &Flag{}
	f.v.Store(initial)

	return f
}

// Get returns the current value.
func (f *Flag) Get() bool {
	return f.v.Load()
}

// Set sets the value.
func (f *Flag) Set(v bool) {
	f.v.Store(v)
}

// Override sets the flag to v and returns a function that puts the previous
// value back. The returned function is safe to call more than once; only the
// first call has an effect. Call it with defer so the value is restored on
// every exit path.
func (f *Flag) Override(v bool) (restore func()) {
	f.mu.Lock()
	prev := f.v.Swap(v)
	f.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.v.Store(prev)
		})
	}
}
