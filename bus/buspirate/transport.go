package buspirate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// Config describes the serial port and SPI clocks.
type Config struct {
	// Path is the serial device, /dev/ttyUSB0 when empty.
	Path string

	// Baud is the serial rate, 115200 when zero.
	Baud int

	// LowRate is the identification clock, at most 250 kHz (the fastest
	// rate within the 400 kHz limit). Zero selects 250 kHz.
	LowRate Rate

	// HighRate is the transfer clock. Zero selects 4 MHz.
	HighRate Rate
}

// Default configuration values.
const (
	DefaultPath = "/dev/ttyUSB0"
	DefaultBaud = 115200
)

func (c Config) withDefaults() (Config, error) {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.LowRate == 0 {
		c.LowRate = Rate250kHz
	}
	if c.HighRate == 0 {
		c.HighRate = Rate4MHz
	}
	if c.LowRate > Rate250kHz {
		return c, fmt.Errorf("%w: identification clock %d Hz exceeds 400 kHz", pkg.ErrInvalidParameter, c.LowRate.Hz())
	}
	if c.HighRate > Rate8MHz {
		return c, fmt.Errorf("%w: rate %d", pkg.ErrInvalidParameter, c.HighRate)
	}
	return c, nil
}

// Transport is a [bus.Transport] on a Bus Pirate.
type Transport struct {
	bus.SystemTimer

	config Config
	port   io.ReadWriter
	closer io.Closer
	err    error
	buf    [8]byte
}

var (
	_ bus.Transport     = (*Transport)(nil)
	_ bus.ErrorReporter = (*Transport)(nil)
)

// Open opens the serial device and enters raw SPI mode.
func Open(config Config) (*Transport, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	port, err := openPort(config.Path, config.Baud)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Path, err)
	}
	t, err := New(port, config)
	if err != nil {
		port.Close()
		return nil, err
	}
	t.closer = port
	return t, nil
}

// New enters raw SPI mode on an already open port.
func New(port io.ReadWriter, config Config) (*Transport, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	t := &Transport{config: config, port: port}
	if err := t.enterSPI(); err != nil {
		return nil, err
	}
	if err := t.Init(); err != nil {
		return nil, err
	}
	pkg.LogDebug(pkg.ComponentTransport, "bus pirate in SPI mode",
		"path", config.Path, "low_hz", config.LowRate.Hz(), "high_hz", config.HighRate.Hz())
	return t, nil
}

func (t *Transport) enterSPI() error {
	banner := t.buf[:len(bitbangBanner)]
	for i := 0; i < handshakeTries; i++ {
		if err := t.write(cmdReset); err != nil {
			return err
		}
		if _, err := io.ReadFull(t.port, banner); err != nil {
			return fmt.Errorf("%w: %v", pkg.ErrHandshake, err)
		}
		if bytes.Equal(banner, bitbangBanner) {
			if err := t.write(cmdSPI); err != nil {
				return err
			}
			reply := t.buf[:len(spiBanner)]
			if _, err := io.ReadFull(t.port, reply); err != nil {
				return fmt.Errorf("%w: %v", pkg.ErrHandshake, err)
			}
			if !bytes.Equal(reply, spiBanner) {
				return fmt.Errorf("%w: SPI mode banner %q", pkg.ErrHandshake, reply)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: no bitbang banner after %d resets", pkg.ErrHandshake, handshakeTries)
}

// Close returns the Bus Pirate to its terminal and closes the port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	_ = t.write(cmdReset)
	_ = t.write(cmdExit)
	t.port = nil
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Init clears the recorded failure, powers the card, releases chip select
// and selects the identification clock.
func (t *Transport) Init() error {
	if t.port == nil {
		return pkg.ErrClosed
	}
	t.err = nil
	for _, cmd := range []byte{
		cmdConfigure | configOutput33 | configCKE,
		cmdPeriph | periphPower | periphCS,
		cmdSetSpeed | byte(t.config.LowRate),
	} {
		if err := t.command(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Err returns the first serial failure since Init.
func (t *Transport) Err() error {
	return t.err
}

// Exchange clocks one byte as a single-byte bulk transfer.
func (t *Transport) Exchange(b byte) byte {
	if t.port == nil {
		t.fail(pkg.ErrClosed)
		return bus.IdleByte
	}
	if t.err != nil {
		return bus.IdleByte
	}
	t.buf[0], t.buf[1] = cmdBulk, b
	if _, err := t.port.Write(t.buf[:2]); err != nil {
		t.fail(err)
		return bus.IdleByte
	}
	if _, err := io.ReadFull(t.port, t.buf[:2]); err != nil {
		t.fail(err)
		return bus.IdleByte
	}
	if t.buf[0] != replyOK {
		t.fail(fmt.Errorf("%w: bulk transfer reply %#02x", pkg.ErrHandshake, t.buf[0]))
		return bus.IdleByte
	}
	return t.buf[1]
}

// Select drives chip select low.
func (t *Transport) Select() { t.apply(cmdCSLow) }

// Deselect drives chip select high.
func (t *Transport) Deselect() { t.apply(cmdCSHigh) }

// SetHighSpeed selects the transfer clock.
func (t *Transport) SetHighSpeed() { t.apply(cmdSetSpeed | byte(t.config.HighRate)) }

// SetLowSpeed selects the identification clock.
func (t *Transport) SetLowSpeed() { t.apply(cmdSetSpeed | byte(t.config.LowRate)) }

func (t *Transport) apply(cmd byte) {
	if t.port == nil {
		t.fail(pkg.ErrClosed)
		return
	}
	if err := t.command(cmd); err != nil {
		t.fail(err)
	}
}

// command sends a one-byte command and checks its acknowledgement.
func (t *Transport) command(cmd byte) error {
	if err := t.write(cmd); err != nil {
		return err
	}
	if _, err := io.ReadFull(t.port, t.buf[:1]); err != nil {
		return fmt.Errorf("command %#02x: %w", cmd, err)
	}
	if t.buf[0] != replyOK {
		return fmt.Errorf("%w: command %#02x answered %#02x", pkg.ErrHandshake, cmd, t.buf[0])
	}
	return nil
}

func (t *Transport) write(b byte) error {
	t.buf[7] = b
	if _, err := t.port.Write(t.buf[7:8]); err != nil {
		return fmt.Errorf("write %#02x: %w", b, err)
	}
	return nil
}

func (t *Transport) fail(err error) {
	if t.err == nil {
		t.err = err
		pkg.LogError(pkg.ComponentTransport, "bus pirate failure", "path", t.config.Path, "error", err)
	}
}
