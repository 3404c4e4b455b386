package epoch

import (
	"testing"

	"github.com/kolkov/sharedcounter/internal/race/vectorclock"
)

// TestNewEpochDecode tests the round trip through the packed layout.
func TestNewEpochDecode(t *testing.T) {
	tests := []struct {
		name  string
		tid   uint16
		clock uint64
	}{
		{"zero", 0, 0},
		{"coordinator", 0, 17},
		{"worker", 2, 3_000_001},
		{"max tid", 65535, 1},
		{"max clock", 1, ClockMask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEpoch(tt.tid, tt.clock)
			tid, clock := e.Decode()
			if tid != tt.tid || clock != tt.clock {
				t.Errorf("Decode() = (%d, %d), want (%d, %d)", tid, clock, tt.tid, tt.clock)
			}
			if e.TID() != tt.tid {
				t.Errorf("TID() = %d, want %d", e.TID(), tt.tid)
			}
		})
	}
}

func TestNewEpoch_ClockTruncation(t *testing.T) {
	e := NewEpoch(3, ClockMask+5)
	tid, clock := e.Decode()
	if tid != 3 {
		t.Errorf("tid = %d, want 3 (clock overflow must not leak into tid)", tid)
	}
	if clock != 4 {
		t.Errorf("clock = %d, want 4", clock)
	}
}

// TestHappensBefore tests the O(1) epoch-vs-clock check.
func TestHappensBefore(t *testing.T) {
	vc := vectorclock.New(3)
	vc.Set(1, 10)

	tests := []struct {
		name string
		e    Epoch
		want bool
	}{
		{"earlier clock", NewEpoch(1, 5), true},
		{"equal clock", NewEpoch(1, 10), true},
		{"later clock", NewEpoch(1, 11), false},
		{"unknown goroutine", NewEpoch(7, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.HappensBefore(vc); got != tt.want {
				t.Errorf("%s.HappensBefore(%s) = %v, want %v", tt.e, vc, got, tt.want)
			}
		})
	}
}

func TestSame(t *testing.T) {
	if !NewEpoch(1, 2).Same(NewEpoch(1, 2)) {
		t.Error("identical epochs not Same")
	}
	if NewEpoch(1, 2).Same(NewEpoch(2, 2)) {
		t.Error("different goroutines reported Same")
	}
}

func TestString(t *testing.T) {
	if got := NewEpoch(5, 42).String(); got != "42@5" {
		t.Errorf("String() = %q, want %q", got, "42@5")
	}
	if got := Epoch(0).String(); got != "0@0" {
		t.Errorf("String() = %q, want %q", got, "0@0")
	}
}

func BenchmarkHappensBefore(b *testing.B) {
	vc := vectorclock.New(3)
	vc.Set(1, 100)
	e := NewEpoch(1, 50)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = e.HappensBefore(vc)
	}
}
