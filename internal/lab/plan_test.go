package lab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
)

func TestDefaultPlan(t *testing.T) {
	p := DefaultPlan()
	if p.Iterations != 1_000_000 {
		t.Errorf("Iterations = %d, want 1000000", p.Iterations)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("DefaultPlan().Validate() = %v", err)
	}
}

func TestParsePlan(t *testing.T) {
	data := []byte(`
iterations: 5000
runs: 10
parallel: 2
sample_every: 16
`)
	got, err := ParsePlan(data)
	if err != nil {
		t.Fatalf("ParsePlan() error = %v", err)
	}
	want := DefaultPlan()
	want.Iterations = 5000
	want.Runs = 10
	want.Parallel = 2
	want.SampleEvery = 16

	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Errorf("ParsePlan: diff\n%v", diff)
	}
}

func TestParsePlan_UnknownField(t *testing.T) {
	if _, err := ParsePlan([]byte("iterashuns: 5\n")); err == nil {
		t.Error("ParsePlan accepted an unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Plan)
		field string
	}{
		{"negative iterations", func(p *Plan) { p.Iterations = -1 }, "iterations"},
		{"zero runs", func(p *Plan) { p.Runs = 0 }, "runs"},
		{"zero parallel", func(p *Plan) { p.Parallel = 0 }, "parallel"},
		{"zero drift attempts", func(p *Plan) { p.DriftAttempts = 0 }, "drift_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPlan()
			tt.edit(&p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidPlan) {
				t.Fatalf("Validate() = %v, want ErrInvalidPlan", err)
			}
			var pe *PlanError
			if !errors.As(err, &pe) {
				t.Fatalf("Validate() = %T, want *PlanError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("Field = %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte("runs: 3\nparallel: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan() error = %v", err)
	}
	if p.Runs != 3 || p.Parallel != 1 {
		t.Errorf("LoadPlan() = %# v", pretty.Formatter(p))
	}

	if _, err := LoadPlan(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadPlan(missing) = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("runs: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPlan(bad); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("LoadPlan(runs: 0) = %v, want ErrInvalidPlan", err)
	}
}
