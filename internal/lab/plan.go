// Package lab runs experiments against the shared counter.
//
// Each experiment checks one observable property of the program: the guarded
// run always ends at zero, the unguarded run drifts, a read before join sees
// an intermediate value, and the happens-before audit finds races exactly
// where the lock or the join is missing. Experiments are configured by a Plan,
// loaded from YAML or built from DefaultPlan. Experiments log through the
// logger attached to their context with zerolog's WithContext.
package lab

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"

	"github.com/kolkov/sharedcounter/internal/worker"
)

// ErrInvalidPlan is wrapped by every PlanError.
var ErrInvalidPlan = errors.New("invalid plan")

// PlanError reports a plan field with an unusable value.
type PlanError struct {
	Field string
	Value int64
	Msg   string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan: %s = %d: %s", e.Field, e.Value, e.Msg)
}

func (e *PlanError) Unwrap() error {
	return ErrInvalidPlan
}

// Plan configures the experiments.
type Plan struct {
	// Iterations is the number of steps per worker.
	Iterations int `yaml:"iterations"`

	// Runs is the number of runs performed by Repeat.
	Runs int `yaml:"runs"`

	// Parallel bounds how many Repeat runs execute at once.
	Parallel int `yaml:"parallel"`

	// DriftAttempts bounds how many unguarded runs Drift tries.
	DriftAttempts int `yaml:"drift_attempts"`

	// SampleEvery is the invariant sampling rate used by Audit; 0 disables it.
	SampleEvery uint64 `yaml:"sample_every"`

	// History makes Audit record a stack for every access, so that race
	// reports show where the previous access was made.
	History bool `yaml:"history"`
}

// DefaultPlan returns the plan matching the counter program's constants.
func DefaultPlan() Plan {
	return Plan{
		Iterations:    worker.DefaultIterations,
		Runs:          100,
		Parallel:      runtime.GOMAXPROCS(0),
		DriftAttempts: 20,
		SampleEvery:   4096,
	}
}

// Validate checks every field and returns the first problem found.
func (p Plan) Validate() error {
	switch {
	case p.Iterations < 0:
		return &PlanError{Field: "iterations", Value: int64(p.Iterations), Msg: "must not be negative"}
	case p.Runs < 1:
		return &PlanError{Field: "runs", Value: int64(p.Runs), Msg: "must be at least 1"}
	case p.Parallel < 1:
		return &PlanError{Field: "parallel", Value: int64(p.Parallel), Msg: "must be at least 1"}
	case p.DriftAttempts < 1:
		return &PlanError{Field: "drift_attempts", Value: int64(p.DriftAttempts), Msg: "must be at least 1"}
	}
	return nil
}

// LoadPlan reads a YAML plan from path. Fields absent from the file keep
// their DefaultPlan values.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan over DefaultPlan and validates it.
func ParsePlan(data []byte) (Plan, error) {
	plan := DefaultPlan()
	if err := yaml.UnmarshalStrict(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
