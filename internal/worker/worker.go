// Package worker implements the incrementer and decrementer tasks.
package worker

import "github.com/kolkov/sharedcounter/internal/counter"

// DefaultIterations is the number of steps each worker performs.
const DefaultIterations = 1_000_000

// Direction selects which counter operation a worker applies.
type Direction int

const (
	// Up calls Increment.
	Up Direction = iota
	// Down calls Decrement.
	Down
)

// String returns the worker name for the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "incrementer"
	case Down:
		return "decrementer"
	default:
		return "unknown"
	}
}

// Delta returns the change one step makes to the counter.
func (d Direction) Delta() int64 {
	if d == Down {
		return -1
	}
	return 1
}

// Worker performs a fixed number of sequential steps in one direction.
type Worker struct {
	Direction  Direction
	Iterations int
}

// New returns a worker performing DefaultIterations steps.
func New(d Direction) Worker {
	return Worker{Direction: d, Iterations: DefaultIterations}
}

// Step applies a single operation to c.
func (w Worker) Step(c counter.Counter) {
	if w.Direction == Down {
		c.Decrement()
		return
	}
	c.Increment()
}

// Run applies exactly w.Iterations operations to c, one after another.
func (w Worker) Run(c counter.Counter) {
	for i := 0; i < w.Iterations; i++ {
		w.Step(c)
	}
}
