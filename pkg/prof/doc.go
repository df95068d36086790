// Package prof wraps [runtime/pprof] for the command-line tools.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/sdspi
//
// Without the tag every function is a no-op and [Enabled] reports false, so
// callers can keep their profiling flags in place.
//
//	if err := prof.StartCPU("cpu.prof"); err != nil {
//	    return err
//	}
//	defer prof.StopCPU()
//
//	prof.Write(prof.ProfileHeap, "heap.prof")
package prof
