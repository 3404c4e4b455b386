package detector

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/kolkov/sharedcounter/internal/race/epoch"
)

// AccessType represents the type of memory access (Read or Write).
type AccessType int

const (
	// AccessRead indicates a read memory access.
	AccessRead AccessType = iota
	// AccessWrite indicates a write memory access.
	AccessWrite
)

// String returns the string representation of an AccessType.
func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Race type constants for deduplication and reporting.
const (
	// RaceTypeWriteWrite indicates a write-write data race.
	RaceTypeWriteWrite = "write-write"
	// RaceTypeReadWrite indicates an earlier read racing with a write.
	RaceTypeReadWrite = "read-write"
	// RaceTypeWriteRead indicates an earlier write racing with a read.
	RaceTypeWriteRead = "write-read"
)

// maxStackDepth is the maximum number of stack frames to capture.
const maxStackDepth = 32

// AccessInfo describes one of the two accesses in a race.
type AccessInfo struct {
	Type        AccessType
	Addr        uintptr
	GoroutineID uint16
	Goroutine   string // label given to Main or Go
	Epoch       epoch.Epoch
	StackTrace  []uintptr // previous access: only with Detector.EnableHistory
}

// RaceReport is a detected race between two accesses to the same variable.
type RaceReport struct {
	Kind     string // one of the RaceType constants
	Current  AccessInfo
	Previous AccessInfo

	// DeduplicationKey identifies the race location:
	// "{kind}:{addr}:{tid1}:{tid2}" with tid1 <= tid2.
	DeduplicationKey string
}

// generateDeduplicationKey builds the key so that a race between goroutines
// A and B yields the same key whichever of them detected it.
func generateDeduplicationKey(kind string, addr uintptr, tid1, tid2 uint16) string {
	return fmt.Sprintf("%s:0x%x:%d:%d", kind, addr, min(tid1, tid2), max(tid1, tid2))
}

// accessTypes maps a race kind to (current, previous) access types.
func accessTypes(kind string) (current, previous AccessType) {
	switch kind {
	case RaceTypeReadWrite:
		return AccessWrite, AccessRead
	case RaceTypeWriteRead:
		return AccessRead, AccessWrite
	default:
		return AccessWrite, AccessWrite
	}
}

// NewRaceReport creates a report without stack traces.
func NewRaceReport(kind string, addr uintptr, prevEpoch, currEpoch epoch.Epoch) *RaceReport {
	currType, prevType := accessTypes(kind)
	return &RaceReport{
		Kind: kind,
		Current: AccessInfo{
			Type:        currType,
			Addr:        addr,
			GoroutineID: currEpoch.TID(),
			Epoch:       currEpoch,
		},
		Previous: AccessInfo{
			Type:        prevType,
			Addr:        addr,
			GoroutineID: prevEpoch.TID(),
			Epoch:       prevEpoch,
		},
		DeduplicationKey: generateDeduplicationKey(kind, addr, prevEpoch.TID(), currEpoch.TID()),
	}
}

// reportRace records a race unless an identical one was already reported.
// Caller holds d.mu.
func (d *Detector) reportRace(kind string, addr uintptr, prevEpoch, currEpoch epoch.Epoch) {
	report := NewRaceReport(kind, addr, prevEpoch, currEpoch)
	if _, dup := d.reported[report.DeduplicationKey]; dup {
		return
	}
	d.reported[report.DeduplicationKey] = struct{}{}

	// Skip captureStackTrace, reportRace and the On* handler.
	report.Current.StackTrace = captureStackTrace(4)
	report.Current.Goroutine = d.nameOf(report.Current.GoroutineID)
	report.Previous.Goroutine = d.nameOf(report.Previous.GoroutineID)
	report.Previous.StackTrace = d.previousStack(addr, report.Previous.GoroutineID,
		report.Previous.Type == AccessWrite)
	d.reports = append(d.reports, report)

	if d.out != nil {
		report.Format(d.out)
	}
}

func captureStackTrace(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

// formatStackTrace renders PCs the way Go's race detector does:
//
//	main.worker()
//	    /path/to/file.go:25 +0x5c
func formatStackTrace(pcs []uintptr) string {
	if len(pcs) == 0 {
		return "  (no stack trace available)\n"
	}

	frames := runtime.CallersFrames(pcs)
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") &&
			!strings.Contains(frame.Function, "/race/detector.") {
			fmt.Fprintf(&buf, "  %s()\n      %s:%d +0x%x\n",
				frame.Function, frame.File, frame.Line, frame.PC&0xfff)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  (all frames filtered - runtime internal)\n"
	}
	return buf.String()
}

func (a AccessInfo) who() string {
	if a.Goroutine == "" {
		return fmt.Sprintf("goroutine %d", a.GoroutineID)
	}
	return fmt.Sprintf("goroutine %d (%s)", a.GoroutineID, a.Goroutine)
}

// Format writes the report in the layout of Go's race detector.
func (r *RaceReport) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "WARNING: DATA RACE\n")
	fmt.Fprintf(w, "%s at 0x%016x by %s:\n", r.Current.Type, r.Current.Addr, r.Current.who())
	fmt.Fprint(w, formatStackTrace(r.Current.StackTrace))
	fmt.Fprintf(w, "  [epoch: %s]\n\n", r.Current.Epoch)
	fmt.Fprintf(w, "Previous %s at 0x%016x by %s:\n", r.Previous.Type, r.Previous.Addr, r.Previous.who())
	if len(r.Previous.StackTrace) > 0 {
		fmt.Fprint(w, formatStackTrace(r.Previous.StackTrace))
	}
	fmt.Fprintf(w, "  [epoch: %s]\n", r.Previous.Epoch)
	fmt.Fprintf(w, "==================\n")
}

// String returns the formatted report.
func (r *RaceReport) String() string {
	var buf strings.Builder
	r.Format(&buf)
	return buf.String()
}
