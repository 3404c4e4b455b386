package audit

import (
	"sync"
	"sync/atomic"
)

// SamplerConfig controls how often the invariant is checked.
type SamplerConfig struct {
	// Rate requests one check every Rate completed steps. 0 disables sampling.
	Rate uint64
}

// SamplerStats summarizes the checks performed.
type SamplerStats struct {
	Requested  uint64 // checks requested by workers
	Samples    uint64 // checks performed
	Violations uint64 // checks where value != increments - decrements
	// FirstViolation describes the first failing check, if any.
	FirstViolation *Violation
}

// Violation is one observation that broke the invariant.
type Violation struct {
	Value      int64
	Increments int64
	Decrements int64
}

// Sampler checks value == increments - decrements on a background goroutine.
//
// Workers request a check every Rate steps without blocking. The sampler
// performs it under the counter's lock, at an instant when no worker is
// inside a step. Requests arriving while a check is pending are merged.
type Sampler struct {
	config  SamplerConfig
	tracked *Tracked

	tracePos atomic.Uint64
	pending  chan struct{}
	stop     chan struct{}
	done     sync.WaitGroup

	mu    sync.Mutex
	stats SamplerStats
}

// NewSampler attaches a sampler to t. Start must be called before the run.
func NewSampler(t *Tracked, config SamplerConfig) *Sampler {
	s := &Sampler{
		config:  config,
		tracked: t,
		pending: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	if config.Rate > 0 {
		t.sampler = s
	}
	return s
}

// Enabled reports whether the sampler performs periodic checks.
func (s *Sampler) Enabled() bool {
	return s.config.Rate > 0
}

// Start launches the sampling goroutine.
func (s *Sampler) Start() {
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		for {
			select {
			case <-s.pending:
				s.Check()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sampling goroutine and returns the final stats.
func (s *Sampler) Stop() SamplerStats {
	close(s.stop)
	s.done.Wait()
	return s.Stats()
}

// tick is called by a worker after each step.
func (s *Sampler) tick() {
	if s.tracePos.Add(1)%s.config.Rate != 0 {
		return
	}
	s.mu.Lock()
	s.stats.Requested++
	s.mu.Unlock()
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Check performs one invariant check now.
func (s *Sampler) Check() bool {
	ok := true
	s.tracked.observe(func(value, inc, dec int64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stats.Samples++
		if value != inc-dec {
			ok = false
			s.stats.Violations++
			if s.stats.FirstViolation == nil {
				s.stats.FirstViolation = &Violation{Value: value, Increments: inc, Decrements: dec}
			}
		}
	})
	return ok
}

// Stats returns a snapshot of the sampler counters.
func (s *Sampler) Stats() SamplerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
