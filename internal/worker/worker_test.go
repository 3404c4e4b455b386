package worker

import (
	"testing"

	"github.com/kolkov/sharedcounter/internal/counter"
)

// countingCounter records how many times each operation was called.
type countingCounter struct {
	inc, dec int
}

func (c *countingCounter) Increment()   { c.inc++ }
func (c *countingCounter) Decrement()   { c.dec++ }
func (c *countingCounter) Value() int64 { return int64(c.inc - c.dec) }

func TestDirection_String(t *testing.T) {
	tests := []struct {
		d    Direction
		want string
	}{
		{Up, "incrementer"},
		{Down, "decrementer"},
		{Direction(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", int(tt.d), got, tt.want)
		}
	}
}

func TestDirection_Delta(t *testing.T) {
	if Up.Delta() != 1 {
		t.Errorf("Up.Delta() = %d, want 1", Up.Delta())
	}
	if Down.Delta() != -1 {
		t.Errorf("Down.Delta() = %d, want -1", Down.Delta())
	}
}

// TestWorker_RunExactIterations verifies each worker makes exactly Iterations calls.
func TestWorker_RunExactIterations(t *testing.T) {
	tests := []struct {
		name       string
		direction  Direction
		iterations int
		wantInc    int
		wantDec    int
	}{
		{"incrementer", Up, 1000, 1000, 0},
		{"decrementer", Down, 250, 0, 250},
		{"zero iterations", Up, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &countingCounter{}
			Worker{Direction: tt.direction, Iterations: tt.iterations}.Run(c)
			if c.inc != tt.wantInc || c.dec != tt.wantDec {
				t.Errorf("calls = (inc %d, dec %d), want (inc %d, dec %d)",
					c.inc, c.dec, tt.wantInc, tt.wantDec)
			}
		})
	}
}

func TestNew_DefaultIterations(t *testing.T) {
	w := New(Down)
	if w.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", w.Iterations, DefaultIterations)
	}
	if w.Direction != Down {
		t.Errorf("Direction = %v, want %v", w.Direction, Down)
	}
}

// TestWorker_GuardedCounter runs a full-size worker against the real counter.
func TestWorker_GuardedCounter(t *testing.T) {
	c := counter.NewGuarded()
	New(Up).Run(c)
	if got := c.Value(); got != DefaultIterations {
		t.Errorf("Value() = %d, want %d", got, DefaultIterations)
	}
}
