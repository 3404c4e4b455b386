// Package vectorclock implements vector clocks for tracking happens-before relations.
//
// A vector clock holds one logical clock per tracked goroutine. The audit only
// ever tracks a handful of goroutines (the coordinator and its workers), so
// the clock is a slice that grows on demand instead of a fixed-size array.
//
// Key operations:
//   - Join: synchronization (point-wise maximum), used on lock acquire and join
//   - LessOrEqual: happens-before check (partial order)
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock represents logical time across goroutines.
//
// vc[tid] is the clock of goroutine tid. Missing entries read as 0.
type VectorClock []uint64

// New creates a zero vector clock with room for n goroutines.
func New(n int) *VectorClock {
	vc := make(VectorClock, n)
	return &vc
}

// Len returns the number of goroutine slots currently allocated.
func (vc *VectorClock) Len() int {
	return len(*vc)
}

// Clone creates a deep copy of the vector clock.
func (vc *VectorClock) Clone() *VectorClock {
	clone := make(VectorClock, len(*vc))
	copy(clone, *vc)
	return &clone
}

// CopyFrom overwrites vc with the contents of other, reusing vc's storage.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	vc.grow(len(*other))
	n := copy(*vc, *other)
	clear((*vc)[n:])
}

// Join performs point-wise maximum: vc = vc ⊔ other.
//
// Used when a goroutine acquires a lock (Ct := Ct ⊔ Lm) and when the
// coordinator joins a worker.
func (vc *VectorClock) Join(other *VectorClock) {
	vc.grow(len(*other))
	for i, c := range *other {
		if c > (*vc)[i] {
			(*vc)[i] = c
		}
	}
}

// LessOrEqual checks partial order: vc ⊑ other.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, c := range *vc {
		if c > other.Get(uint16(i)) { //nolint:gosec // i < len(vc) <= 65536
			return false
		}
	}
	return true
}

// HappensBefore is an alias for LessOrEqual.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock for goroutine tid.
func (vc *VectorClock) Increment(tid uint16) {
	vc.grow(int(tid) + 1)
	(*vc)[tid]++
}

// Get returns the clock value for goroutine tid.
func (vc *VectorClock) Get(tid uint16) uint64 {
	if int(tid) >= len(*vc) {
		return 0
	}
	return (*vc)[tid]
}

// Set sets the clock value for goroutine tid.
func (vc *VectorClock) Set(tid uint16, clock uint64) {
	vc.grow(int(tid) + 1)
	(*vc)[tid] = clock
}

// String returns "{tid:clock, ...}" listing only non-zero clocks.
func (vc *VectorClock) String() string {
	var parts []string
	for i, c := range *vc {
		if c != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(c, 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (vc *VectorClock) grow(n int) {
	if n > len(*vc) {
		*vc = append(*vc, make(VectorClock, n-len(*vc))...)
	}
}
