package audit

import (
	"io"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/kolkov/sharedcounter/internal/coordinator"
	"github.com/kolkov/sharedcounter/internal/counter"
	"github.com/kolkov/sharedcounter/internal/race/detector"
	"github.com/kolkov/sharedcounter/internal/race/goroutine"
	"github.com/kolkov/sharedcounter/internal/worker"
)

// Config describes one audited run.
type Config struct {
	// Iterations is the number of steps per worker.
	Iterations int

	// Unguarded removes the lock from the counter.
	Unguarded bool

	// PeekBeforeJoin makes the coordinator read the counter without the
	// lock, after the workers have made progress but before joining them.
	PeekBeforeJoin bool

	// SampleEvery requests an invariant check every n steps; 0 disables
	// periodic checks. A final check after the join is always made.
	SampleEvery uint64

	// History records a stack for every access so that race reports show
	// both sides. It makes the run several times slower.
	History bool

	// Output, if set, receives race reports as they are found.
	Output io.Writer

	// Logger receives lifecycle events.
	Logger zerolog.Logger
}

// Report is the outcome of an audited run.
type Report struct {
	Final      int64
	Peek       *int64 // value read before join, when requested
	Increments int64
	Decrements int64
	Sampler    SamplerStats
	Races      []detector.RaceReport
	Stats      detector.Stats
}

// Clean reports whether the run had no races and no invariant violations.
func (r *Report) Clean() bool {
	return len(r.Races) == 0 && r.Sampler.Violations == 0
}

// Run executes the counter program under the detector.
func Run(cfg Config) (*Report, error) {
	d := detector.NewDetector()
	if cfg.Output != nil {
		d.SetOutput(cfg.Output)
	}
	if cfg.History {
		d.EnableHistory()
	}

	main := d.Main("coordinator")
	t := NewTracked(d, !cfg.Unguarded)
	t.Init(main)

	sampler := NewSampler(t, SamplerConfig{Rate: cfg.SampleEvery})
	contexts := make(map[worker.Direction]*goroutine.RaceContext, 2)

	coord := coordinator.New(
		coordinator.WithIterations(cfg.Iterations),
		coordinator.WithCounter(t.View(main)),
		coordinator.WithLogger(cfg.Logger),
		coordinator.WithHooks(coordinator.Hooks{
			Fork: func(w worker.Worker) counter.Counter {
				ctx := d.Go(main, w.Direction.String())
				contexts[w.Direction] = ctx
				return t.View(ctx)
			},
			Joined: func(w worker.Worker) {
				d.Wait(main, contexts[w.Direction])
			},
		}),
	)

	sampler.Start()
	if err := coord.Start(); err != nil {
		sampler.Stop()
		return nil, err
	}

	report := &Report{}
	if cfg.PeekBeforeJoin {
		waitForProgress(t, cfg.Iterations)
		v := t.RawRead(main)
		report.Peek = &v
		cfg.Logger.Debug().Int64("value", v).Msg("peeked before join")
	}

	if err := coord.Join(); err != nil {
		sampler.Stop()
		return nil, err
	}
	final, err := coord.Finish()
	if err != nil {
		sampler.Stop()
		return nil, err
	}

	sampler.Check()
	report.Sampler = sampler.Stop()
	report.Final = final
	report.Increments, report.Decrements = t.Completed()
	report.Races = d.Reports()
	report.Stats = d.Stats()

	cfg.Logger.Debug().
		Int64("final", final).
		Int("races", len(report.Races)).
		Uint64("samples", report.Sampler.Samples).
		Uint64("violations", report.Sampler.Violations).
		Msg("audit complete")
	return report, nil
}

// waitForProgress spins until at least one step has completed, so that a
// premature read has a worker write to race with.
func waitForProgress(t *Tracked, iterations int) {
	if iterations <= 0 {
		return
	}
	for {
		inc, dec := t.Completed()
		if inc+dec > 0 {
			return
		}
		runtime.Gosched()
	}
}
