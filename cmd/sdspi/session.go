package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/softsd/blockdev"
	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/bus/buspirate"
	"github.com/ardnew/softsd/bus/emu"
	"github.com/ardnew/softsd/bus/spidev"
	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/sd"
)

// Transport names.
const (
	transportEmu       = "emu"
	transportSpidev    = "spidev"
	transportBusPirate = "buspirate"
)

// defaultImage backs the emulator when no device is given.
const defaultImage = "sdcard.img"

// transport is a bus transport that owns an open resource.
type transport interface {
	bus.Transport
	io.Closer
}

// session is an initialized card on an open transport.
type session struct {
	transport transport
	driver    *sd.Driver
	card      sd.Device
	disk      *blockdev.Device
}

func openTransport(c *cli.Context, readOnly bool) (transport, error) {
	path := c.String("device")
	speed := c.Uint("speed")
	readOnly = readOnly || c.Bool("read-only")

	switch name := c.String("transport"); name {
	case transportEmu:
		kind, err := emu.ParseKind(c.String("card"))
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = defaultImage
		}
		config := emu.DefaultConfig()
		config.Kind = kind
		return emu.Open(path, readOnly, config)

	case transportSpidev:
		return spidev.Open(spidev.Config{Path: path, HighSpeedHz: uint32(speed)})

	case transportBusPirate:
		config := buspirate.Config{Path: path}
		if speed != 0 {
			config.HighRate = buspirate.RateFor(int(speed))
		}
		return buspirate.Open(config)

	default:
		return nil, fmt.Errorf("%w: transport %q", pkg.ErrInvalidParameter, name)
	}
}

// openSession opens the transport and initializes the card.
func openSession(c *cli.Context, readOnly bool) (*session, error) {
	t, err := openTransport(c, readOnly)
	if err != nil {
		return nil, err
	}

	s := &session{
		transport: t,
		driver: sd.New(t, sd.Config{
			TranslateBlockAddress: c.Bool("block-addressing"),
		}),
	}
	if r := s.driver.Init(&s.card); !r.OK() {
		t.Close()
		return nil, fmt.Errorf("initialize card: %w", r.Err())
	}
	if s.disk, err = blockdev.New(s.driver, &s.card); err != nil {
		t.Close()
		return nil, err
	}
	pkg.LogDebug(component, "session open",
		"transport", c.String("transport"), "device", c.String("device"),
		"type", s.card.CardType(), "sectors", s.card.Sectors())
	return s, nil
}

func (s *session) Close() error {
	stats := s.driver.Stats()
	pkg.LogDebug(component, "session closed", "reads", stats.Reads, "writes", stats.Writes)
	return s.transport.Close()
}
