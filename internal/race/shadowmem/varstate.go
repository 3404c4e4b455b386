// Package shadowmem implements shadow memory cells for the happens-before audit.
//
// For every tracked variable the shadow memory keeps a VarState recording the
// last write epoch and the read history. The read history is adaptive: a
// single read epoch while reads are totally ordered, promoted to a full
// vector clock once two unordered reads are seen, and demoted again by the
// next write.
//
// Shadow memory is not synchronized; the detector serializes all access.
package shadowmem

import (
	"github.com/kolkov/sharedcounter/internal/race/epoch"
	"github.com/kolkov/sharedcounter/internal/race/vectorclock"
)

// VarState is the access history of one variable.
type VarState struct {
	// W is the epoch of the last write; zero means never written.
	W epoch.Epoch

	// r is the last read epoch while not promoted; zero means no read.
	r epoch.Epoch

	// readClock holds concurrent reads once promoted; nil otherwise.
	readClock *vectorclock.VectorClock
}

// IsPromoted reports whether reads are tracked by a vector clock.
func (vs *VarState) IsPromoted() bool {
	return vs.readClock != nil
}

// GetReadEpoch returns the single read epoch (zero when promoted or unread).
func (vs *VarState) GetReadEpoch() epoch.Epoch {
	return vs.r
}

// SetReadEpoch records a read that is ordered after every earlier read.
func (vs *VarState) SetReadEpoch(e epoch.Epoch) {
	vs.r = e
}

// GetReadClock returns the read vector clock, or nil when not promoted.
func (vs *VarState) GetReadClock() *vectorclock.VectorClock {
	return vs.readClock
}

// PromoteToReadClock switches to vector clock read tracking.
//
// The new clock holds the existing read epoch plus the concurrent read
// described by e.
func (vs *VarState) PromoteToReadClock(e epoch.Epoch) {
	rc := vectorclock.New(0)
	if vs.r != 0 {
		tid, clock := vs.r.Decode()
		rc.Set(tid, clock)
	}
	tid, clock := e.Decode()
	rc.Set(tid, clock)
	vs.readClock = rc
	vs.r = 0
}

// AddRead records a read in the promoted read clock.
func (vs *VarState) AddRead(e epoch.Epoch) {
	tid, clock := e.Decode()
	if clock > vs.readClock.Get(tid) {
		vs.readClock.Set(tid, clock)
	}
}

// Demote clears all read history. A write makes earlier reads irrelevant.
func (vs *VarState) Demote() {
	vs.r = 0
	vs.readClock = nil
}
