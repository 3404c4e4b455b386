package counter

import (
	"github.com/kolkov/sharedcounter/internal/coordinator"
	internal "github.com/kolkov/sharedcounter/internal/counter"
	"github.com/kolkov/sharedcounter/internal/worker"
)

// Iterations is the number of updates each goroutine makes in Run.
const Iterations = worker.DefaultIterations

// Counter is an integer that can be incremented and decremented.
type Counter = internal.Counter

// New returns a guarded counter starting at zero.
//
// Increment, Decrement and Value are safe for concurrent use.
func New() Counter {
	return internal.NewGuarded()
}

// Run starts the incrementer and the decrementer, waits for both and returns
// the final value.
//
// Example:
//
//	fmt.Println(counter.Run()) // 0
func Run() int64 {
	return RunN(Iterations)
}

// RunN is Run with n updates per goroutine. A negative n is treated as 0.
func RunN(n int) int64 {
	res, err := coordinator.New(coordinator.WithIterations(n)).Run()
	if err != nil {
		// A fresh coordinator always goes through Start, Join and Finish.
		panic(err)
	}
	return res.Value
}
