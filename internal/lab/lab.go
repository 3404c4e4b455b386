package lab

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/sharedcounter/internal/audit"
	"github.com/kolkov/sharedcounter/internal/coordinator"
	"github.com/kolkov/sharedcounter/internal/counter"
)

var (
	// ErrNonZero means a guarded run finished with a value other than 0.
	ErrNonZero = errors.New("final value is not zero")

	// ErrNoDrift means no unguarded run lost an update.
	ErrNoDrift = errors.New("no drift observed")

	// ErrAuditMismatch means the audit found races where none were expected,
	// or none where some were.
	ErrAuditMismatch = errors.New("audit outcome does not match expectation")
)

// Once performs one guarded run.
func Once(ctx context.Context, plan Plan) (coordinator.Result, error) {
	c := coordinator.New(
		coordinator.WithIterations(plan.Iterations),
		coordinator.WithLogger(*zerolog.Ctx(ctx)),
	)
	res, err := c.Run()
	if err != nil {
		return res, err
	}
	if res.Value != 0 {
		return res, fmt.Errorf("value %d: %w", res.Value, ErrNonZero)
	}
	return res, nil
}

// RepeatResult summarizes Repeat.
type RepeatResult struct {
	Runs   int     // runs completed
	Zeros  int     // runs that finished at 0
	Values []int64 // final value per run, in run order
}

// Repeat performs plan.Runs independent guarded runs, at most plan.Parallel
// at a time. It fails if any run finishes away from zero.
func Repeat(ctx context.Context, plan Plan) (RepeatResult, error) {
	log := zerolog.Ctx(ctx)
	values := make([]int64, plan.Runs)
	done := make([]bool, plan.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.Parallel)
	for i := 0; i < plan.Runs; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := coordinator.New(coordinator.WithIterations(plan.Iterations)).Run()
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			values[i] = res.Value
			done[i] = true
			if res.Value != 0 {
				return fmt.Errorf("run %d: value %d: %w", i, res.Value, ErrNonZero)
			}
			return nil
		})
	}
	err := g.Wait()

	result := RepeatResult{Values: make([]int64, 0, plan.Runs)}
	for i, ok := range done {
		if !ok {
			continue
		}
		result.Runs++
		result.Values = append(result.Values, values[i])
		if values[i] == 0 {
			result.Zeros++
		}
	}
	log.Debug().Int("runs", result.Runs).Int("zeros", result.Zeros).Msg("repeat done")
	return result, err
}

// DriftResult summarizes Drift.
type DriftResult struct {
	Attempts int   // unguarded runs performed
	Value    int64 // first non-zero final value
	Drifted  bool
}

// Drift runs the program without the lock until a run ends away from zero,
// giving up after plan.DriftAttempts runs.
func Drift(ctx context.Context, plan Plan) (DriftResult, error) {
	log := zerolog.Ctx(ctx)
	if runtime.GOMAXPROCS(0) < 2 {
		log.Warn().Msg("GOMAXPROCS < 2, workers cannot overlap and drift is unlikely")
	}

	var result DriftResult
	for result.Attempts < plan.DriftAttempts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempts++
		res, err := coordinator.New(
			coordinator.WithIterations(plan.Iterations),
			coordinator.WithCounter(counter.NewUnguarded()),
		).Run()
		if err != nil {
			return result, err
		}
		log.Debug().Int("attempt", result.Attempts).Int64("value", res.Value).Msg("unguarded run")
		if res.Value != 0 {
			result.Value = res.Value
			result.Drifted = true
			return result, nil
		}
	}
	return result, fmt.Errorf("%d attempts: %w", result.Attempts, ErrNoDrift)
}

// PeekResult summarizes Peek.
type PeekResult struct {
	Snapshot int64 // value read while workers were running
	Final    int64 // value read after join
}

// Peek reads the counter once before joining the workers and once after.
// The snapshot is an unspecified intermediate value; only Final is checked.
func Peek(ctx context.Context, plan Plan) (PeekResult, error) {
	c := coordinator.New(
		coordinator.WithIterations(plan.Iterations),
		coordinator.WithLogger(*zerolog.Ctx(ctx)),
	)
	if err := c.Start(); err != nil {
		return PeekResult{}, err
	}
	runtime.Gosched()

	var result PeekResult
	result.Snapshot = c.Snapshot()

	if err := c.Join(); err != nil {
		return result, err
	}
	final, err := c.Finish()
	if err != nil {
		return result, err
	}
	result.Final = final
	if final != 0 {
		return result, fmt.Errorf("value %d: %w", final, ErrNonZero)
	}
	return result, nil
}

// Audit runs the program under the happens-before detector.
//
// A guarded run without peek must be clean. An unguarded run, or a run
// that reads before join, must report at least one race.
func Audit(ctx context.Context, plan Plan, unguarded, peek bool) (*audit.Report, error) {
	report, err := audit.Run(audit.Config{
		Iterations:     plan.Iterations,
		Unguarded:      unguarded,
		PeekBeforeJoin: peek,
		SampleEvery:    plan.SampleEvery,
		History:        plan.History,
		Logger:         *zerolog.Ctx(ctx),
	})
	if err != nil {
		return nil, err
	}

	wantRaces := unguarded || peek
	switch {
	case wantRaces && len(report.Races) == 0:
		return report, fmt.Errorf("expected races, found none: %w", ErrAuditMismatch)
	case !wantRaces && len(report.Races) > 0:
		return report, fmt.Errorf("expected no races, found %d: %w", len(report.Races), ErrAuditMismatch)
	case !unguarded && report.Final != 0:
		return report, fmt.Errorf("value %d: %w", report.Final, ErrNonZero)
	case !unguarded && report.Sampler.Violations > 0:
		return report, fmt.Errorf("%d invariant violations under the lock: %w",
			report.Sampler.Violations, ErrAuditMismatch)
	}
	return report, nil
}
