// Package goroutine holds the per-goroutine state of the happens-before audit.
//
// Each tracked goroutine (the coordinator and each worker) owns a RaceContext
// with its vector clock and a cached epoch. Fork and Join add the edges that
// `go` and a completed wait introduce between goroutines.
package goroutine

import (
	"github.com/kolkov/sharedcounter/internal/race/epoch"
	"github.com/kolkov/sharedcounter/internal/race/vectorclock"
)

// RaceContext is the logical time of one tracked goroutine.
//
// Invariant: Epoch == epoch.NewEpoch(TID, C[TID]).
type RaceContext struct {
	// TID identifies the goroutine inside the audit.
	TID uint16

	// C is the goroutine's vector clock.
	C *vectorclock.VectorClock

	// Epoch caches C[TID].
	Epoch epoch.Epoch
}

// Alloc creates the context of a fresh goroutine.
//
// The clock starts at 1 so that no real access is ever stamped with the
// zero epoch, which shadow memory uses for "no access".
func Alloc(tid uint16) *RaceContext {
	ctx := &RaceContext{
		TID: tid,
		C:   vectorclock.New(int(tid) + 1),
	}
	ctx.C.Set(tid, 1)
	ctx.Epoch = epoch.NewEpoch(tid, 1)
	return ctx
}

// IncrementClock advances this goroutine's logical time.
func (rc *RaceContext) IncrementClock() {
	rc.C.Increment(rc.TID)
	rc.Epoch = epoch.NewEpoch(rc.TID, rc.C.Get(rc.TID))
}

// GetEpoch returns the cached epoch.
func (rc *RaceContext) GetEpoch() epoch.Epoch {
	return rc.Epoch
}

// Fork creates the context of a goroutine started by rc.
//
// Everything rc did before the `go` statement happens before the child's
// first action: the child inherits rc's clock. rc then ticks so that its
// later actions are concurrent with the child.
func (rc *RaceContext) Fork(childTID uint16) *RaceContext {
	child := Alloc(childTID)
	child.C.Join(rc.C)
	rc.IncrementClock()
	return child
}

// Join records that rc observed the termination of child.
//
// Everything child did happens before rc's next action.
func (rc *RaceContext) Join(child *RaceContext) {
	rc.C.Join(child.C)
	rc.IncrementClock()
}
