// Package coordinator starts the two workers, joins them, and reads the result.
//
// The coordinator owns the shared counter for the duration of a run and hands
// it to both workers by reference. Join is the single synchronization barrier:
// Finish refuses to read the counter until both workers have terminated.
//
// Example:
//
//	c := coordinator.New()
//	res, err := c.Run()
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Value) // 0
package coordinator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolkov/sharedcounter/internal/counter"
	"github.com/kolkov/sharedcounter/internal/worker"
)

// Hooks let a caller observe worker start and termination.
//
// Both functions run on the coordinator's goroutine.
type Hooks struct {
	// Fork is called before worker w is started. It returns the counter
	// view w will operate on; returning nil keeps the shared counter.
	Fork func(w worker.Worker) counter.Counter

	// Joined is called for each worker after Join has observed its termination.
	Joined func(w worker.Worker)
}

// Result is the outcome of a completed run.
type Result struct {
	Value      int64         // Final counter value
	Iterations int           // Steps per worker
	Elapsed    time.Duration // Start to Join
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithIterations sets the number of steps each worker performs.
func WithIterations(n int) Option {
	return func(c *Coordinator) {
		c.iterations = n
	}
}

// WithCounter replaces the default guarded counter.
func WithCounter(ctr counter.Counter) Option {
	return func(c *Coordinator) {
		c.counter = ctr
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithHooks installs start/termination hooks.
func WithHooks(h Hooks) Option {
	return func(c *Coordinator) {
		c.hooks = h
	}
}

// Coordinator runs one incrementer and one decrementer against a shared counter.
type Coordinator struct {
	counter    counter.Counter
	iterations int
	hooks      Hooks
	log        zerolog.Logger

	workers []worker.Worker
	wg      sync.WaitGroup
	started time.Time
	elapsed time.Duration

	// mu guards state.
	mu    sync.Mutex
	state State
}

// New constructs a coordinator in the Created state.
//
// Defaults: a fresh counter.Guarded, worker.DefaultIterations steps per
// worker, and a disabled logger.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		iterations: worker.DefaultIterations,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.counter == nil {
		c.counter = counter.NewGuarded()
	}
	if c.iterations < 0 {
		c.iterations = 0
	}

	c.workers = []worker.Worker{
		{Direction: worker.Up, Iterations: c.iterations},
		{Direction: worker.Down, Iterations: c.iterations},
	}
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counter returns the shared counter.
func (c *Coordinator) Counter() counter.Counter {
	return c.counter
}

// Start launches both workers concurrently and returns immediately.
func (c *Coordinator) Start() error {
	if err := c.advance("Start", Created); err != nil {
		return err
	}

	c.started = time.Now()
	c.wg.Add(len(c.workers))
	for _, w := range c.workers {
		view := c.counter
		if c.hooks.Fork != nil {
			if v := c.hooks.Fork(w); v != nil {
				view = v
			}
		}
		go func(w worker.Worker, ctr counter.Counter) {
			defer c.wg.Done()
			w.Run(ctr)
		}(w, view)
		c.log.Debug().Stringer("worker", w.Direction).Int("iterations", w.Iterations).Msg("worker started")
	}
	return nil
}

// Join blocks until both workers have terminated.
func (c *Coordinator) Join() error {
	if err := c.expect("Join", Running); err != nil {
		return err
	}

	c.wg.Wait()
	c.elapsed = time.Since(c.started)

	if c.hooks.Joined != nil {
		for _, w := range c.workers {
			c.hooks.Joined(w)
		}
	}

	if err := c.advance("Join", Running); err != nil {
		return err
	}
	c.log.Debug().Dur("elapsed", c.elapsed).Msg("workers joined")
	return nil
}

// Finish reads the final counter value. It requires a completed Join.
func (c *Coordinator) Finish() (int64, error) {
	if err := c.expect("Finish", Joined); err != nil {
		return 0, err
	}
	v := c.counter.Value()
	if err := c.advance("Finish", Joined); err != nil {
		return 0, err
	}
	c.log.Debug().Int64("value", v).Msg("run done")
	return v, nil
}

// Snapshot reads the counter without waiting for the workers.
//
// While the coordinator is Running the result is an unspecified intermediate
// value; only Finish is guaranteed to see every step.
func (c *Coordinator) Snapshot() int64 {
	return c.counter.Value()
}

// Run performs Start, Join and Finish.
func (c *Coordinator) Run() (Result, error) {
	if err := c.Start(); err != nil {
		return Result{}, err
	}
	if err := c.Join(); err != nil {
		return Result{}, err
	}
	v, err := c.Finish()
	if err != nil {
		return Result{}, err
	}
	return Result{
		Value:      v,
		Iterations: c.iterations,
		Elapsed:    c.elapsed,
	}, nil
}

// expect checks the current state without changing it.
func (c *Coordinator) expect(op string, from State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		to, _ := from.next()
		return &StateError{Op: op, From: c.state, To: to}
	}
	return nil
}

// advance moves from the given state to its successor.
func (c *Coordinator) advance(op string, from State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	to, ok := from.next()
	if c.state != from || !ok {
		return &StateError{Op: op, From: c.state, To: to}
	}
	c.state = to
	return nil
}
