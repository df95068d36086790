//go:build linux && (386 || amd64 || arm || arm64 || riscv64 || loong64)

package spidev

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// Transport is a [bus.Transport] on a spidev device.
type Transport struct {
	bus.SystemTimer

	config   Config
	fd       int
	speedHz  uint32
	selected bool
	err      error

	tx, rx [1]byte
}

var (
	_ bus.Transport     = (*Transport)(nil)
	_ bus.ErrorReporter = (*Transport)(nil)
)

// Open opens the spidev device described by config.
func Open(config Config) (*Transport, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(config.Path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Path, err)
	}

	t := &Transport{config: config, fd: fd}
	if err := t.Init(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	pkg.LogDebug(pkg.ComponentTransport, "spidev opened",
		"path", config.Path, "mode", config.Mode,
		"low_hz", config.LowSpeedHz, "high_hz", config.HighSpeedHz)
	return t, nil
}

// Close releases the device.
func (t *Transport) Close() error {
	if t.fd < 0 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	return err
}

// Init clears the recorded failure and applies low speed with the card
// deselected.
func (t *Transport) Init() error {
	if t.fd < 0 {
		return pkg.ErrClosed
	}
	t.err = nil
	t.selected = false
	if err := t.setMode(t.config.Mode&modeMask | spiNoCS); err != nil {
		return err
	}
	return t.setSpeed(t.config.LowSpeedHz)
}

// Err returns the first ioctl failure since Init.
func (t *Transport) Err() error {
	return t.err
}

// Exchange clocks one byte.
func (t *Transport) Exchange(b byte) byte {
	if t.fd < 0 {
		t.fail(pkg.ErrClosed)
		return bus.IdleByte
	}

	t.tx[0], t.rx[0] = b, bus.IdleByte
	xfer := transfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&t.tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&t.rx[0]))),
		length:      1,
		speedHz:     t.speedHz,
		bitsPerWord: 8,
	}
	if t.selected {
		xfer.csChange = 1
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), ioctlMessage1, uintptr(unsafe.Pointer(&xfer)))
	runtime.KeepAlive(t)
	if errno != 0 {
		t.fail(fmt.Errorf("SPI_IOC_MESSAGE: %w", errno))
		return bus.IdleByte
	}
	return t.rx[0]
}

// Select asserts chip select for the following transfers.
func (t *Transport) Select() {
	if err := t.setMode(t.config.Mode & modeMask); err != nil {
		t.fail(err)
		return
	}
	t.selected = true
}

// Deselect releases chip select.
func (t *Transport) Deselect() {
	t.selected = false
	if err := t.setMode(t.config.Mode&modeMask | spiNoCS); err != nil {
		t.fail(err)
	}
}

// SetHighSpeed switches to the transfer clock.
func (t *Transport) SetHighSpeed() {
	if err := t.setSpeed(t.config.HighSpeedHz); err != nil {
		t.fail(err)
	}
}

// SetLowSpeed switches to the identification clock.
func (t *Transport) SetLowSpeed() {
	if err := t.setSpeed(t.config.LowSpeedHz); err != nil {
		t.fail(err)
	}
}

func (t *Transport) setMode(mode uint32) error {
	if err := unix.IoctlSetPointerInt(t.fd, uint(ioctlWrMode32), int(mode)); err != nil {
		return fmt.Errorf("SPI_IOC_WR_MODE32 %#x: %w", mode, err)
	}
	return nil
}

func (t *Transport) setSpeed(hz uint32) error {
	if err := unix.IoctlSetPointerInt(t.fd, uint(ioctlWrMaxSpeedHz), int(hz)); err != nil {
		return fmt.Errorf("SPI_IOC_WR_MAX_SPEED_HZ %d: %w", hz, err)
	}
	t.speedHz = hz
	return nil
}

func (t *Transport) fail(err error) {
	if t.err == nil {
		t.err = err
		pkg.LogError(pkg.ComponentTransport, "spidev failure", "path", t.config.Path, "error", err)
	}
}
