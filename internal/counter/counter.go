// Package counter implements the shared integer counter.
//
// Guarded bundles the value with the mutex that protects it, so the state
// object can be constructed once and handed to every goroutine that mutates
// it. Unguarded has the same interface without the lock and exists to show
// that the lock is load-bearing.
//
// Guarded Increment/Decrement use scoped acquisition:
//
//	c.mu.Lock()
//	defer c.mu.Unlock()
//	c.value++
//
// so the lock is released on every exit path, including a panic.
package counter

import (
	"sync"
	"sync/atomic"
)

// Counter is a shared integer that can be stepped by one in either direction.
type Counter interface {
	// Increment adds 1 to the value.
	Increment()

	// Decrement subtracts 1 from the value.
	Decrement()

	// Value returns the current value.
	Value() int64
}

// Guarded is a counter protected by a mutual-exclusion lock.
//
// Every read-modify-write happens with mu held, so increments and decrements
// are totally ordered. The zero value is ready to use and starts at 0.
type Guarded struct {
	mu    sync.Mutex
	value int64
}

// NewGuarded returns a lock-protected counter starting at 0.
func NewGuarded() *Guarded {
	return &Guarded{}
}

// Increment adds 1 to the value under the lock.
func (c *Guarded) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
}

// Decrement subtracts 1 from the value under the lock.
func (c *Guarded) Decrement() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value--
}

// Value returns the current value, read under the lock.
func (c *Guarded) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// With runs fn on the value while holding the lock.
//
// fn observes the counter at an instant when no other goroutine is inside
// Increment or Decrement. fn must not call back into c.
func (c *Guarded) With(fn func(value *int64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.value)
}

// Unguarded is a counter with no mutual exclusion.
//
// Each step loads the value and stores value±1 as two separate atomic
// operations. Concurrent steps can interleave between the load and the
// store, losing updates. The atomics keep this clear of the Go memory
// model's definition of a data race, so drift can be demonstrated in
// tests run with -race.
type Unguarded struct {
	value atomic.Int64
}

// NewUnguarded returns an unprotected counter starting at 0.
func NewUnguarded() *Unguarded {
	return &Unguarded{}
}

// Increment loads the value and stores value+1.
func (c *Unguarded) Increment() {
	v := c.value.Load()
	c.value.Store(v + 1)
}

// Decrement loads the value and stores value-1.
func (c *Unguarded) Decrement() {
	v := c.value.Load()
	c.value.Store(v - 1)
}

// Value returns the last stored value.
func (c *Unguarded) Value() int64 {
	return c.value.Load()
}

var (
	_ Counter = (*Guarded)(nil)
	_ Counter = (*Unguarded)(nil)
)
