// Package counter runs two goroutines against one mutex-guarded integer.
//
// One goroutine increments the counter a million times, the other decrements
// it a million times. Both run concurrently; the caller waits for both and
// reads the result, which is always zero because every update is made while
// holding the counter's lock.
//
// # Quick Start
//
//	v := counter.Run()
//	fmt.Println(v) // 0
//
// The number of updates per goroutine can be changed with [RunN]. A single
// guarded counter can be used directly through [New]:
//
//	c := counter.New()
//	c.Increment()
//	c.Decrement()
//	fmt.Println(c.Value()) // 0
//
// # Guarantees
//
//   - Every Increment and Decrement is a read-modify-write made under the lock.
//   - The lock is released on every exit path of an update.
//   - The result is read only after both goroutines have terminated.
//
// Under these rules the result does not depend on scheduling. The counterlab
// command checks each rule in isolation: it removes the lock to show lost
// updates, reads before the join to show an intermediate value, and runs the
// program under a happens-before detector that reports a data race exactly
// when a rule is broken.
//
// # Examples
//
// See package-level examples in the documentation:
//   - [Example] - One full run
//   - [Example_runN] - A shorter run
//   - [Example_new] - Using the guarded counter directly
//
// # Links
//
// FastTrack algorithm paper (PLDI 2009), used by the audit:
// https://users.soe.ucsc.edu/~cormac/papers/pldi09.pdf
package counter
