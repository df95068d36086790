package sd

import (
	"time"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// Stats counts block transfers that reached the bus, successful or not.
type Stats struct {
	Reads  uint64
	Writes uint64
}

// Driver speaks the SD/MMC SPI protocol over a [bus.Transport].
//
// A Driver holds no card state; the card is described by a [Device] passed
// to each operation. The transport is used exclusively by one operation at a
// time and a Driver must not be shared between goroutines.
type Driver struct {
	bus    bus.Transport
	config Config
	stats  Stats
	armed  bool // bus timer owned by an enclosing loop
}

// New creates a driver using the given transport and configuration.
func New(t bus.Transport, config Config) *Driver {
	return &Driver{
		bus:    t,
		config: config.withDefaults(),
	}
}

// Config returns the effective configuration.
func (d *Driver) Config() Config {
	return d.config
}

// Stats returns the transfer counters.
func (d *Driver) Stats() Stats {
	return d.stats
}

// release deselects the card and clocks one flush byte so the card lets go
// of the data line.
func (d *Driver) release() {
	d.bus.Deselect()
	d.bus.Exchange(bus.IdleByte)
}

// startDeadline arms the bus timer for timeout unless an enclosing loop already
// owns it. The transport has a single timer, so a nested loop is bounded by
// the enclosing deadline instead. The result must be passed to stopDeadline.
func (d *Driver) startDeadline(timeout time.Duration) bool {
	if d.armed {
		return false
	}
	d.armed = true
	d.bus.StartTimer(millis(timeout))
	return true
}

// stopDeadline disarms the timer if owned is true.
func (d *Driver) stopDeadline(owned bool) {
	if owned {
		d.bus.StopTimer()
		d.armed = false
	}
}

// skip clocks n idle bytes and discards what arrives.
func (d *Driver) skip(n int) {
	for i := 0; i < n; i++ {
		d.bus.Exchange(bus.IdleByte)
	}
}

// transportErr returns a failure recorded by the transport, if it reports one.
func (d *Driver) transportErr() error {
	if r, ok := d.bus.(bus.ErrorReporter); ok {
		if err := r.Err(); err != nil {
			pkg.LogError(pkg.ComponentDriver, "transport failure", "error", err)
			return err
		}
	}
	return nil
}

// address converts a sector index to a command argument.
func (d *Driver) address(dev *Device, sector uint32) uint32 {
	if d.config.TranslateBlockAddress && dev.cardType.IsBlockAddressed() {
		return sector
	}
	return sector * BlockSize
}
