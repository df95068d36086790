package bus

// Speed selects one of the two SPI clock rates the driver uses.
type Speed uint8

// Clock speeds.
const (
	SpeedLow  Speed = iota // Identification rate, at most 400 kHz
	SpeedHigh              // Data transfer rate
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "low"
	case SpeedHigh:
		return "high"
	default:
		return "unknown"
	}
}

// IdleByte is clocked out whenever the host only wants to receive.
const IdleByte = 0xFF

// Transport defines the bus capabilities consumed by the SD/MMC driver.
//
// A Transport moves single bytes over a full-duplex serial bus, drives the
// card's chip-select line, switches between two clock rates, and provides a
// polled countdown timer. The driver owns the transport exclusively for the
// duration of one operation and never calls it concurrently.
type Transport interface {
	// Init resets the bus hardware. It is called at the start of every
	// initialization attempt.
	Init() error

	// Exchange clocks b out and returns the byte clocked in.
	// A transport that cannot complete the exchange returns IdleByte.
	Exchange(b byte) byte

	// Select asserts chip-select (CS low).
	Select()

	// Deselect releases chip-select (CS high).
	Deselect()

	// SetHighSpeed switches the bus to the data transfer clock.
	SetHighSpeed()

	// SetLowSpeed switches the bus to the identification clock.
	SetLowSpeed()

	// Timer

	// StartTimer arms the countdown timer for ms milliseconds.
	StartTimer(ms uint32)

	// TimerPending reports whether the armed deadline has not yet elapsed.
	// It returns false when no timer is armed.
	TimerPending() bool

	// StopTimer disarms the countdown timer. It must follow every StartTimer.
	StopTimer()
}

// ErrorReporter is implemented by transports that record I/O failures which
// could not be returned through [Transport.Exchange].
type ErrorReporter interface {
	// Err returns the first I/O failure since the last Init, or nil.
	Err() error
}
