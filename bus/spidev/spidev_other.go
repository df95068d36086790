//go:build !(linux && (386 || amd64 || arm || arm64 || riscv64 || loong64))

package spidev

import (
	"fmt"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// Transport is unavailable on this platform.
type Transport struct {
	bus.SystemTimer
}

// Open reports that spidev is unsupported.
func Open(config Config) (*Transport, error) {
	if _, err := config.withDefaults(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("spidev: %w on this platform", pkg.ErrNotSupported)
}

func (t *Transport) Close() error { return nil }
func (t *Transport) Init() error { return pkg.ErrNotSupported }
func (t *Transport) Err() error { return pkg.ErrNotSupported }
func (t *Transport) Exchange(byte) byte { return bus.IdleByte }
func (t *Transport) Select() {}
func (t *Transport) Deselect() {}
func (t *Transport) SetHighSpeed() {}
func (t *Transport) SetLowSpeed() {}
