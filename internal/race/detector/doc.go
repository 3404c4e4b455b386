// Package detector implements the FastTrack happens-before checks used to
// audit the shared counter.
//
// The audit does not instrument arbitrary programs. It is driven explicitly
// by the counter harness, which reports every access to the counter cell and
// every lock operation together with the RaceContext of the goroutine making
// it:
//
//	d := detector.NewDetector()
//	main := d.Main("coordinator")
//	w := d.Go(main, "incrementer")   // before `go worker()`
//	d.OnAcquire(lockAddr, w)         // mu.Lock()
//	d.OnRead(cellAddr, w)            // v := value
//	d.OnWrite(cellAddr, w)           // value = v + 1
//	d.OnRelease(lockAddr, w)         // mu.Unlock()
//	d.Wait(main, w)                  // after wg.Wait()
//	d.OnRead(cellAddr, main)         // final read
//
// # Race Detection Rules
//
// On a write (FastTrack [FT WRITE]):
//
//  1. Same-epoch fast path: if vs.W equals the current epoch, skip checks
//  2. Write-write race: if vs.W does not happen before Ct, report
//  3. Read-write race: if the read epoch (or any entry of the promoted read
//     clock) does not happen before Ct, report
//  4. vs.W = current epoch, read history demoted
//
// On a read (FastTrack [FT READ]):
//
//  1. Write-read race: if vs.W does not happen before Ct, report
//  2. Ordered reads replace the read epoch; an unordered read promotes the
//     cell to a read vector clock
//
// # Determinism
//
// Detection depends only on the happens-before edges the harness reports,
// never on how the scheduler happened to interleave the goroutines. Removing
// the lock from the counter is therefore reported on every run, even runs
// where the final value comes out right.
//
// # Thread Safety
//
// All Detector methods are safe for concurrent use. They are serialized by an
// internal mutex, which is deliberately not modelled as a synchronization
// edge between the goroutines being audited.
package detector
