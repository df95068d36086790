// Package pkg provides shared utilities for the softsd SD/MMC driver.
//
// This package contains common functionality used by the driver core,
// the bus transports and the command-line tool, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - The [Result] completion codes returned by driver operations
//   - Sentinel errors for results, transports and adapters
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentCard, "card mounted", "type", ct)
//
// # Results and Errors
//
// Driver operations report a [Result]. Callers that prefer errors use
// [Result.Err], which maps each code onto a sentinel value:
//
//	if err := drv.ReadBlock(&dev, buf, 0, 0, 512).Err(); errors.Is(err, pkg.ErrDisk) {
//	    // Handle protocol failure
//	}
package pkg
