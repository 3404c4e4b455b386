package detector

import (
	"io"
	"sync"

	"github.com/kolkov/sharedcounter/internal/race/epoch"
	"github.com/kolkov/sharedcounter/internal/race/goroutine"
	"github.com/kolkov/sharedcounter/internal/race/shadowmem"
	"github.com/kolkov/sharedcounter/internal/race/stackdepot"
	"github.com/kolkov/sharedcounter/internal/race/syncshadow"
)

// Stats counts the events the detector has processed.
type Stats struct {
	Reads      uint64 // OnRead calls
	Writes     uint64 // OnWrite calls
	Acquires   uint64 // OnAcquire calls
	Releases   uint64 // OnRelease calls
	Forks      uint64 // Go calls
	Joins      uint64 // Wait calls
	Promotions uint64 // Epoch → VectorClock read promotions
	Demotions  uint64 // VectorClock → Epoch demotions on write
}

// Detector implements the FastTrack algorithm over explicitly reported events.
type Detector struct {
	// mu serializes every operation, including updates to RaceContexts.
	mu sync.Mutex

	// shadowMemory holds the access history of each tracked variable.
	shadowMemory *shadowmem.ShadowMemory

	// syncShadow holds the release clock of each tracked lock.
	syncShadow *syncshadow.SyncShadow

	// names maps goroutine IDs to the labels used in reports.
	names []string

	// reported deduplicates races by DeduplicationKey.
	reported map[string]struct{}
	reports  []*RaceReport

	stats Stats

	// depot and history record where each goroutine last accessed each
	// variable. Both are nil unless EnableHistory was called.
	depot   *stackdepot.Depot
	history map[historyKey]uint64

	// out receives formatted reports as they are found; nil disables printing.
	out io.Writer
}

// NewDetector creates a detector with empty shadow state.
func NewDetector() *Detector {
	return &Detector{
		shadowMemory: shadowmem.NewShadowMemory(),
		syncShadow:   syncshadow.NewSyncShadow(),
		reported:     make(map[string]struct{}),
	}
}

// SetOutput makes the detector print each new report to w.
func (d *Detector) SetOutput(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out = w
}

// historyKey identifies the last read or write of addr by tid.
type historyKey struct {
	addr  uintptr
	tid   uint16
	write bool
}

// EnableHistory makes the detector capture a stack trace on every access, so
// that reports show where the previous access was made as well as the current
// one. It slows every access down and should be called before the first one.
func (d *Detector) EnableHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.depot == nil {
		d.depot = stackdepot.New()
		d.history = make(map[historyKey]uint64)
	}
}

// remember records the stack of the current access. Caller holds d.mu.
func (d *Detector) remember(addr uintptr, tid uint16, write bool) {
	if d.depot == nil {
		return
	}
	// Skip remember and the On* handler.
	d.history[historyKey{addr: addr, tid: tid, write: write}] = d.depot.Capture(2)
}

// previousStack returns the recorded stack of the last access of the given
// kind by tid, or nil. Caller holds d.mu.
func (d *Detector) previousStack(addr uintptr, tid uint16, write bool) []uintptr {
	if d.depot == nil {
		return nil
	}
	return d.depot.Get(d.history[historyKey{addr: addr, tid: tid, write: write}])
}

// Main allocates the context of the root goroutine.
//
// Main must be called once, before any Go call.
func (d *Detector) Main(name string) *goroutine.RaceContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goroutine.Alloc(d.register(name))
}

// Go records that parent is about to start a new goroutine and returns the
// child's context.
func (d *Detector) Go(parent *goroutine.RaceContext, name string) *goroutine.RaceContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Forks++
	return parent.Fork(d.register(name))
}

// Wait records that parent has observed the termination of child.
func (d *Detector) Wait(parent, child *goroutine.RaceContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Joins++
	parent.Join(child)
}

// register assigns the next goroutine ID. Caller holds d.mu.
func (d *Detector) register(name string) uint16 {
	tid := uint16(len(d.names)) //nolint:gosec // the audit tracks a handful of goroutines
	d.names = append(d.names, name)
	return tid
}

// nameOf returns the label of tid. Caller holds d.mu.
func (d *Detector) nameOf(tid uint16) string {
	if int(tid) < len(d.names) {
		return d.names[tid]
	}
	return ""
}

// OnWrite handles a write to the variable at addr by ctx.
func (d *Detector) OnWrite(addr uintptr, ctx *goroutine.RaceContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Writes++

	vs := d.shadowMemory.GetOrCreate(addr)
	currentEpoch := ctx.GetEpoch()

	// [FT WRITE SAME EPOCH]
	if vs.W.Same(currentEpoch) {
		return
	}

	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		d.reportRace(RaceTypeWriteWrite, addr, vs.W, currentEpoch)
	}

	if !vs.IsPromoted() {
		if r := vs.GetReadEpoch(); r != 0 && r.TID() != ctx.TID && !r.HappensBefore(ctx.C) {
			d.reportRace(RaceTypeReadWrite, addr, r, currentEpoch)
		}
	} else {
		if r, ok := firstUnordered(vs, ctx); ok {
			d.reportRace(RaceTypeReadWrite, addr, r, currentEpoch)
		}
		d.stats.Demotions++
	}

	vs.W = currentEpoch
	vs.Demote()
	d.remember(addr, ctx.TID, true)
	ctx.IncrementClock()
}

// OnRead handles a read of the variable at addr by ctx.
func (d *Detector) OnRead(addr uintptr, ctx *goroutine.RaceContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Reads++

	vs := d.shadowMemory.GetOrCreate(addr)
	currentEpoch := ctx.GetEpoch()

	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		d.reportRace(RaceTypeWriteRead, addr, vs.W, currentEpoch)
	}

	if vs.IsPromoted() {
		vs.AddRead(currentEpoch)
		d.remember(addr, ctx.TID, false)
		ctx.IncrementClock()
		return
	}

	// [FT READ SAME EPOCH]
	existing := vs.GetReadEpoch()
	if existing.Same(currentEpoch) {
		return
	}

	switch {
	case existing == 0, existing.TID() == ctx.TID, existing.HappensBefore(ctx.C):
		vs.SetReadEpoch(currentEpoch)
	default:
		vs.PromoteToReadClock(currentEpoch)
		d.stats.Promotions++
	}
	d.remember(addr, ctx.TID, false)
	ctx.IncrementClock()
}

// OnAcquire handles a lock of the mutex at addr: Ct := Ct ⊔ Lm.
func (d *Detector) OnAcquire(addr uintptr, ctx *goroutine.RaceContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Acquires++

	sv := d.syncShadow.GetOrCreate(addr)
	if rc := sv.GetReleaseClock(); rc != nil {
		ctx.C.Join(rc)
	}
	ctx.IncrementClock()
}

// OnRelease handles an unlock of the mutex at addr: Lm := Ct.
func (d *Detector) OnRelease(addr uintptr, ctx *goroutine.RaceContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Releases++

	d.syncShadow.GetOrCreate(addr).SetReleaseClock(ctx.C)
	ctx.IncrementClock()
}

// firstUnordered returns a read from the promoted read clock of vs that does
// not happen before ctx.
func firstUnordered(vs *shadowmem.VarState, ctx *goroutine.RaceContext) (epoch.Epoch, bool) {
	rc := vs.GetReadClock()
	for i := 0; i < rc.Len(); i++ {
		tid := uint16(i) //nolint:gosec // bounded by rc.Len()
		if tid == ctx.TID {
			continue
		}
		if clock := rc.Get(tid); clock > ctx.C.Get(tid) {
			return epoch.NewEpoch(tid, clock), true
		}
	}
	return 0, false
}

// RacesDetected returns the number of distinct races reported.
func (d *Detector) RacesDetected() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reports)
}

// Reports returns copies of every distinct race reported so far.
func (d *Detector) Reports() []RaceReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RaceReport, len(d.reports))
	for i, r := range d.reports {
		out[i] = *r
	}
	return out
}

// Stats returns the event counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
