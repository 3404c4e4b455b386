// Package audit runs the counter program under instrumentation.
//
// A Tracked counter reports every access to its cell and every lock operation
// to a happens-before detector and counts completed increments and
// decrements. A Sampler checks, at moments when no worker holds the lock,
// that the value equals completed increments minus completed decrements.
// Run wires both into a coordinator run and summarizes the outcome.
package audit

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/sharedcounter/internal/counter"
	"github.com/kolkov/sharedcounter/internal/race/detector"
	"github.com/kolkov/sharedcounter/internal/race/goroutine"
)

// Tracked is an instrumented counter.
//
// In guarded mode every step runs under mu and is reported as
// Acquire, Read, Write, Release. In unguarded mode mu is never taken and a
// step is reported as Read, Write.
//
// The cell is accessed with atomics in both modes so that unguarded and
// premature reads are memory-safe; the detector, not the Go runtime, is what
// judges whether they are ordered.
type Tracked struct {
	mu      sync.Mutex
	value   atomic.Int64
	guarded bool

	increments atomic.Int64
	decrements atomic.Int64

	d       *detector.Detector
	sampler *Sampler
}

// NewTracked creates an instrumented counter reporting to d.
func NewTracked(d *detector.Detector, guarded bool) *Tracked {
	return &Tracked{d: d, guarded: guarded}
}

// Guarded reports whether steps take the lock.
func (t *Tracked) Guarded() bool {
	return t.guarded
}

func (t *Tracked) cellAddr() uintptr {
	return uintptr(unsafe.Pointer(&t.value))
}

func (t *Tracked) lockAddr() uintptr {
	return uintptr(unsafe.Pointer(&t.mu))
}

// Init records the coordinator's initialisation of the cell to 0.
func (t *Tracked) Init(ctx *goroutine.RaceContext) {
	t.d.OnWrite(t.cellAddr(), ctx)
	t.value.Store(0)
}

// View returns the counter as seen by the goroutine owning ctx.
func (t *Tracked) View(ctx *goroutine.RaceContext) counter.Counter {
	return view{t: t, ctx: ctx}
}

// step performs one read-modify-write by ctx.
func (t *Tracked) step(ctx *goroutine.RaceContext, delta int64) {
	if t.guarded {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.d.OnAcquire(t.lockAddr(), ctx)
		defer t.d.OnRelease(t.lockAddr(), ctx)
	}

	t.d.OnRead(t.cellAddr(), ctx)
	v := t.value.Load()
	t.d.OnWrite(t.cellAddr(), ctx)
	t.value.Store(v + delta)

	if delta > 0 {
		t.increments.Add(1)
	} else {
		t.decrements.Add(1)
	}

	if t.sampler != nil {
		t.sampler.tick()
	}
}

// read returns the value as read by ctx, under the lock in guarded mode.
func (t *Tracked) read(ctx *goroutine.RaceContext) int64 {
	if t.guarded {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.d.OnAcquire(t.lockAddr(), ctx)
		defer t.d.OnRelease(t.lockAddr(), ctx)
	}
	t.d.OnRead(t.cellAddr(), ctx)
	return t.value.Load()
}

// RawRead reads the cell without the lock, whatever the mode.
func (t *Tracked) RawRead(ctx *goroutine.RaceContext) int64 {
	t.d.OnRead(t.cellAddr(), ctx)
	return t.value.Load()
}

// Completed returns the number of finished increments and decrements.
func (t *Tracked) Completed() (increments, decrements int64) {
	return t.increments.Load(), t.decrements.Load()
}

// observe calls fn with a consistent view of value and completed counts.
// In unguarded mode there is no lock to make the view consistent.
func (t *Tracked) observe(fn func(value, increments, decrements int64)) {
	if t.guarded {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	fn(t.value.Load(), t.increments.Load(), t.decrements.Load())
}

// view binds a Tracked counter to one goroutine's race context.
type view struct {
	t   *Tracked
	ctx *goroutine.RaceContext
}

func (v view) Increment()   { v.t.step(v.ctx, 1) }
func (v view) Decrement()   { v.t.step(v.ctx, -1) }
func (v view) Value() int64 { return v.t.read(v.ctx) }
