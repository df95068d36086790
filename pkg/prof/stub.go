//go:build !profile

package prof

// Profiling errors, never returned without the "profile" tag.
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
)

// Enabled reports whether the binary was built with the "profile" tag.
func Enabled() bool { return false }

// StartCPU is a no-op without the "profile" tag.
func StartCPU(string) error { return nil }

// StopCPU is a no-op without the "profile" tag.
func StopCPU() error { return nil }

// IsCPUActive always reports false without the "profile" tag.
func IsCPUActive() bool { return false }

// Write is a no-op without the "profile" tag.
func Write(Profile, string) error { return nil }
