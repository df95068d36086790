package emu

import (
	"time"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// Config describes the emulated card and the virtual bus timing.
type Config struct {
	Kind   Kind
	Faults Fault

	// ReadyPolls is the number of ACMD41/CMD1 requests answered with the
	// idle bit before the card becomes ready.
	ReadyPolls int

	// ResponseDelay is the number of idle bytes before an R1 (NCR).
	ResponseDelay int

	// AccessDelay is the number of idle bytes before a data token (NAC).
	AccessDelay int

	// BusyBytes is the number of busy bytes after an accepted write.
	BusyBytes int

	// Virtual time charged per exchanged byte at each speed and per timer poll.
	LowByteTime  time.Duration
	HighByteTime time.Duration
	PollTime     time.Duration
}

// DefaultConfig returns an SDHC card with realistic delays.
func DefaultConfig() Config {
	return Config{
		Kind:          KindSDHC,
		ReadyPolls:    4,
		ResponseDelay: 1,
		AccessDelay:   4,
		BusyBytes:     16,
		LowByteTime:   20 * time.Microsecond,
		HighByteTime:  time.Microsecond,
		PollTime:      10 * time.Microsecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadyPolls <= 0 {
		c.ReadyPolls = d.ReadyPolls
	}
	if c.ResponseDelay <= 0 {
		c.ResponseDelay = d.ResponseDelay
	}
	if c.AccessDelay < 0 {
		c.AccessDelay = 0
	}
	if c.BusyBytes < 0 {
		c.BusyBytes = 0
	}
	if c.LowByteTime <= 0 {
		c.LowByteTime = d.LowByteTime
	}
	if c.HighByteTime <= 0 {
		c.HighByteTime = d.HighByteTime
	}
	if c.PollTime <= 0 {
		c.PollTime = d.PollTime
	}
	return c
}

// Transport is a [bus.Transport] wired to an emulated card. Time is virtual:
// it advances only as bytes are exchanged and the timer is polled, so
// timeouts are deterministic and take no wall-clock time.
type Transport struct {
	card     *Card
	config   Config
	selected bool
	speed    bus.Speed

	now      time.Duration
	deadline time.Duration
	running  bool

	inits     int
	exchanges uint64
}

var _ bus.Transport = (*Transport)(nil)

// New returns a transport with a card backed by medium.
func New(medium Medium, config Config) (*Transport, error) {
	config = config.withDefaults()
	card, err := newCard(medium, config)
	if err != nil {
		return nil, err
	}
	pkg.LogDebug(pkg.ComponentEmu, "card inserted",
		"kind", config.Kind, "blocks", card.Blocks(), "faults", uint8(config.Faults))
	return &Transport{card: card, config: config}, nil
}

// Open returns a transport with a card backed by the image file at path.
func Open(path string, readOnly bool, config Config) (*Transport, error) {
	medium, err := OpenFileMedium(path, readOnly)
	if err != nil {
		return nil, err
	}
	t, err := New(medium, config)
	if err != nil {
		medium.Close()
		return nil, err
	}
	return t, nil
}

// Card returns the emulated card.
func (t *Transport) Card() *Card { return t.card }

// Close syncs and closes the card's medium.
func (t *Transport) Close() error {
	if err := t.card.medium.Sync(); err != nil {
		t.card.medium.Close()
		return err
	}
	return t.card.medium.Close()
}

// Init resets the bus. The card keeps its state, as it would on a real
// board where the host controller is reset without cutting card power.
func (t *Transport) Init() error {
	t.inits++
	t.selected = false
	t.speed = bus.SpeedLow
	t.card.deselect()
	return nil
}

// Exchange clocks one byte and advances virtual time.
func (t *Transport) Exchange(b byte) byte {
	t.exchanges++
	if t.speed == bus.SpeedHigh {
		t.now += t.config.HighByteTime
	} else {
		t.now += t.config.LowByteTime
	}
	if !t.selected {
		t.card.clock()
		return bus.IdleByte
	}
	return t.card.exchange(b)
}

// Select asserts chip select.
func (t *Transport) Select() { t.selected = true }

// Deselect releases chip select.
func (t *Transport) Deselect() {
	if t.selected {
		t.card.deselect()
	}
	t.selected = false
}

// SetHighSpeed switches to the data transfer clock.
func (t *Transport) SetHighSpeed() { t.speed = bus.SpeedHigh }

// SetLowSpeed switches to the identification clock.
func (t *Transport) SetLowSpeed() { t.speed = bus.SpeedLow }

// StartTimer arms the virtual timer.
func (t *Transport) StartTimer(ms uint32) {
	t.deadline = t.now + time.Duration(ms)*time.Millisecond
	t.running = true
}

// TimerPending advances virtual time by one poll and reports whether the
// deadline is still ahead.
func (t *Transport) TimerPending() bool {
	t.now += t.config.PollTime
	return t.running && t.now < t.deadline
}

// StopTimer disarms the virtual timer.
func (t *Transport) StopTimer() { t.running = false }

// TimerRunning reports whether a StartTimer is awaiting its StopTimer.
func (t *Transport) TimerRunning() bool { return t.running }

// Selected reports whether chip select is asserted.
func (t *Transport) Selected() bool { return t.selected }

// Speed returns the current clock selection.
func (t *Transport) Speed() bus.Speed { return t.speed }

// Now returns the virtual time elapsed since the transport was created.
func (t *Transport) Now() time.Duration { return t.now }

// Inits returns the number of Init calls.
func (t *Transport) Inits() int { return t.inits }

// Exchanges returns the number of bytes exchanged.
func (t *Transport) Exchanges() uint64 { return t.exchanges }
