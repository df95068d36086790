//go:build !linux

package buspirate

import (
	"fmt"
	"io"

	"github.com/ardnew/softsd/pkg"
)

func openPort(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("serial ports are %w on this platform", pkg.ErrNotSupported)
}
