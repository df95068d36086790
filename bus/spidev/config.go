package spidev

import (
	"fmt"

	"github.com/ardnew/softsd/pkg"
)

// Config describes the spidev device and clock rates.
type Config struct {
	// Path is the character device, /dev/spidev0.0 when empty.
	Path string

	// Mode is the SPI clock mode (0-3). SD cards use mode 0.
	Mode uint32

	// LowSpeedHz is the identification clock, 400 kHz when zero.
	LowSpeedHz uint32

	// HighSpeedHz is the transfer clock, 20 MHz when zero.
	HighSpeedHz uint32
}

// Default configuration values.
const (
	DefaultPath        = "/dev/spidev0.0"
	DefaultLowSpeedHz  = 400_000
	DefaultHighSpeedHz = 20_000_000
)

func (c Config) withDefaults() (Config, error) {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.LowSpeedHz == 0 {
		c.LowSpeedHz = DefaultLowSpeedHz
	}
	if c.HighSpeedHz == 0 {
		c.HighSpeedHz = DefaultHighSpeedHz
	}
	if c.Mode > 3 {
		return c, fmt.Errorf("%w: SPI mode %d", pkg.ErrInvalidParameter, c.Mode)
	}
	if c.LowSpeedHz > 400_000 {
		return c, fmt.Errorf("%w: identification clock %d Hz exceeds 400 kHz", pkg.ErrInvalidParameter, c.LowSpeedHz)
	}
	if c.HighSpeedHz < c.LowSpeedHz {
		return c, fmt.Errorf("%w: high speed %d Hz below low speed %d Hz", pkg.ErrInvalidParameter, c.HighSpeedHz, c.LowSpeedHz)
	}
	return c, nil
}
