// Package epoch implements compact logical timestamps for the FastTrack audit.
//
// An Epoch packs a goroutine ID and that goroutine's clock into one 64-bit
// value:
//   - Top 16 bits: goroutine ID
//   - Bottom 48 bits: clock value
//
// A worker performing a million guarded steps advances its clock about three
// million times, so the clock field needs more than 24 bits.
package epoch

import (
	"strconv"

	"github.com/kolkov/sharedcounter/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp. Layout: [TID:16][Clock:48].
//
// The zero Epoch (clock 0 of goroutine 0) means "no access recorded".
type Epoch uint64

const (
	// TIDBits is the number of bits allocated for the goroutine ID.
	TIDBits = 16

	// ClockBits is the number of bits allocated for the clock value.
	ClockBits = 48

	// ClockMask extracts the clock value.
	ClockMask = (1 << ClockBits) - 1
)

// NewEpoch creates an epoch from goroutine ID and clock value.
// Clock values beyond 48 bits are truncated.
func NewEpoch(tid uint16, clock uint64) Epoch {
	return Epoch(uint64(tid)<<ClockBits | (clock & ClockMask))
}

// Decode extracts the goroutine ID and clock value.
func (e Epoch) Decode() (tid uint16, clock uint64) {
	tid = uint16(e >> ClockBits) //nolint:gosec // top 16 bits by construction
	clock = uint64(e) & ClockMask
	return
}

// TID returns the goroutine ID.
func (e Epoch) TID() uint16 {
	tid, _ := e.Decode()
	return tid
}

// HappensBefore reports whether e happened before the time described by vc:
// e.clock <= vc[e.tid].
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// Same reports whether two epochs are identical.
func (e Epoch) Same(other Epoch) bool {
	return e == other
}

// String returns "clock@tid", e.g. "42@1".
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(clock, 10) + "@" + strconv.Itoa(int(tid))
}
