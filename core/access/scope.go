// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import "sync"

// ScopedCounter is a nestable, go-routine safe guard. Entering the scope
// increments the counter; the returned leave function decrements it again.
// Because leave is meant to run in a defer, the guard restores the previous
// state even when the guarded code panics or returns an error.
//
// The permission gate's "skip" and "disable" primitives are both instances
// of this counter: skip forces validity while the prior document for an
// update/delete is being fetched, disable is used by administrative
// listings that must see every document regardless of permissions.
type ScopedCounter struct {
	mu sync.Mutex
	n  int
}

// Enter increments the counter and returns a function that decrements it.
// Callers are expected to immediately defer the returned function:
//
//	leave := counter.Enter()
//	defer leave()
func (c *ScopedCounter) Enter() func() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.n--
		c.mu.Unlock()
	}
}

// Active reports whether the counter is currently entered by at least one
// caller on the call stack.
func (c *ScopedCounter) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n > 0
}

// With runs f with the scope entered, guaranteeing the scope is left again
// even if f panics.
func (c *ScopedCounter) With(f func() error) error {
	leave := c.Enter()
	defer leave()
	return f()
}
