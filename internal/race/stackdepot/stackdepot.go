// Package stackdepot stores stack traces of counter accesses, deduplicated by
// hash.
//
// The workers execute the same few call paths millions of times, so a depot
// typically holds a handful of stacks however long the run. The detector
// records the hash of each access's stack in its history and resolves it only
// when a race is reported:
//
//	depot := stackdepot.New()
//	h := depot.Capture(1)           // on every access
//	...
//	pcs := depot.Get(h)             // when reporting
package stackdepot

import (
	"encoding/binary"
	"hash/fnv"
	"runtime"
	"sync"
)

// MaxFrames is the maximum number of frames kept per stack.
const MaxFrames = 16

// Depot is a set of stack traces keyed by FNV-1a hash.
// The zero value is not usable; call New.
type Depot struct {
	stacks sync.Map // uint64 -> []uintptr
}

// New returns an empty depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the calling goroutine's stack and returns its hash.
//
// skip is the number of frames to omit above Capture's caller: 0 starts the
// trace at the caller of Capture. A zero hash means no frame was available.
func (d *Depot) Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	h := hashStack(pcs[:n])
	if _, ok := d.stacks.Load(h); !ok {
		stack := make([]uintptr, n)
		copy(stack, pcs[:n])
		d.stacks.LoadOrStore(h, stack)
	}
	return h
}

// Get returns the program counters stored under hash, or nil.
func (d *Depot) Get(hash uint64) []uintptr {
	if hash == 0 {
		return nil
	}
	v, ok := d.stacks.Load(hash)
	if !ok {
		return nil
	}
	return v.([]uintptr)
}

// Len returns the number of distinct stacks stored.
func (d *Depot) Len() int {
	n := 0
	d.stacks.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
