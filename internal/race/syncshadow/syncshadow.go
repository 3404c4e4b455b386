// Package syncshadow tracks the release clocks of synchronization objects.
//
// Each lock seen by the audit has a SyncVar holding the vector clock of its
// last release. Acquiring the lock joins that clock into the acquirer:
//
//	Acquire(m):  Ct := Ct ⊔ Lm
//	Release(m):  Lm := Ct
//
// which establishes Unlock(m) happens-before the next Lock(m).
//
// Not synchronized; the detector serializes all access.
package syncshadow

import "github.com/kolkov/sharedcounter/internal/race/vectorclock"

// SyncVar is the shadow state of one lock.
type SyncVar struct {
	releaseClock *vectorclock.VectorClock
	releases     uint64
}

// GetReleaseClock returns the clock captured at the last release, or nil.
func (sv *SyncVar) GetReleaseClock() *vectorclock.VectorClock {
	return sv.releaseClock
}

// SetReleaseClock captures c as the lock's release clock (Lm := Ct).
func (sv *SyncVar) SetReleaseClock(c *vectorclock.VectorClock) {
	if sv.releaseClock == nil {
		sv.releaseClock = c.Clone()
	} else {
		sv.releaseClock.CopyFrom(c)
	}
	sv.releases++
}

// Releases returns how many times the lock has been released.
func (sv *SyncVar) Releases() uint64 {
	return sv.releases
}

// SyncShadow maps lock addresses to their SyncVar.
type SyncShadow struct {
	vars map[uintptr]*SyncVar
}

// NewSyncShadow creates an empty sync shadow.
func NewSyncShadow() *SyncShadow {
	return &SyncShadow{vars: make(map[uintptr]*SyncVar)}
}

// GetOrCreate returns the SyncVar for addr, creating it on first use.
func (ss *SyncShadow) GetOrCreate(addr uintptr) *SyncVar {
	sv, ok := ss.vars[addr]
	if !ok {
		sv = &SyncVar{}
		ss.vars[addr] = sv
	}
	return sv
}

// Len returns the number of tracked locks.
func (ss *SyncShadow) Len() int {
	return len(ss.vars)
}
