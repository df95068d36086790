package prof

// Profile names a pprof profile.
type Profile string

// Profiles understood by [Write], plus the CPU profile which is streamed
// with [StartCPU] and [StopCPU] instead.
const (
	ProfileCPU       Profile = "cpu"
	ProfileHeap      Profile = "heap"
	ProfileAllocs    Profile = "allocs"
	ProfileGoroutine Profile = "goroutine"
)

// String returns the profile name.
func (p Profile) String() string {
	return string(p)
}
