package pkg

import "errors"

// Driver result errors, one per non-OK [Result].
var (
	// ErrNotInitialized indicates the card has not been mounted.
	ErrNotInitialized = errors.New("card not initialized")

	// ErrDisk indicates a protocol failure (bad response or missing data token).
	ErrDisk = errors.New("disk error")

	// ErrParameter indicates an invalid sector, offset, count or buffer.
	ErrParameter = errors.New("invalid parameter")

	// ErrBusy indicates the card did not finish programming in time.
	ErrBusy = errors.New("card busy")

	// ErrRejected indicates the card rejected a data block.
	ErrRejected = errors.New("data rejected")

	// ErrNoResponse indicates the card did not answer a command.
	ErrNoResponse = errors.New("no response")
)

// Transport and adapter errors.
var (
	// ErrClosed indicates the transport or medium has been closed.
	ErrClosed = errors.New("closed")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidParameter indicates an invalid configuration value.
	ErrInvalidParameter = errors.New("invalid configuration parameter")

	// ErrHandshake indicates a bridge did not enter the expected mode.
	ErrHandshake = errors.New("bridge handshake failed")

	// ErrMediumTooSmall indicates an image cannot back the requested card kind.
	ErrMediumTooSmall = errors.New("medium too small")

	// ErrReadOnly indicates a write to read-only media.
	ErrReadOnly = errors.New("medium is read-only")
)

// Result is the completion code of a driver operation.
// Ordinal values are stable.
type Result int

// Result values.
const (
	ResultOK             Result = iota // Operation succeeded
	ResultNotInitialized               // Card not initialized
	ResultDiskError                    // Protocol failure
	ResultParameterError               // Invalid parameter
	ResultBusy                         // Programming busy timeout
	ResultRejected                     // Data block rejected
	ResultNoResponse                   // Card silent
)

// String returns a string representation of the result.
func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNotInitialized:
		return "not initialized"
	case ResultDiskError:
		return "disk error"
	case ResultParameterError:
		return "parameter error"
	case ResultBusy:
		return "busy"
	case ResultRejected:
		return "rejected"
	case ResultNoResponse:
		return "no response"
	default:
		return "unknown"
	}
}

// OK reports whether r is [ResultOK].
func (r Result) OK() bool {
	return r == ResultOK
}

// Err returns the sentinel error for the result, or nil for [ResultOK].
func (r Result) Err() error {
	switch r {
	case ResultOK:
		return nil
	case ResultNotInitialized:
		return ErrNotInitialized
	case ResultParameterError:
		return ErrParameter
	case ResultBusy:
		return ErrBusy
	case ResultRejected:
		return ErrRejected
	case ResultNoResponse:
		return ErrNoResponse
	default:
		return ErrDisk
	}
}
