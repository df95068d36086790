//go:build linux

package buspirate

import (
	"fmt"
	"io"
	"os"

	tty "github.com/mattn/go-tty"
	"golang.org/x/sys/unix"

	"github.com/ardnew/softsd/pkg"
)

var baudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// ttyPort adapts a raw-mode tty to io.ReadWriteCloser.
type ttyPort struct {
	tty     *tty.TTY
	restore func() error
}

func openPort(path string, baud int) (io.ReadWriteCloser, error) {
	t, err := tty.OpenDevice(path)
	if err != nil {
		return nil, err
	}
	restore, err := t.Raw()
	if err != nil {
		t.Close()
		return nil, err
	}
	for _, f := range []*os.File{t.Input(), t.Output()} {
		if err := setBaud(f, baud); err != nil {
			restore()
			t.Close()
			return nil, err
		}
	}
	return &ttyPort{tty: t, restore: restore}, nil
}

func setBaud(f *os.File, baud int) error {
	code, ok := baudRates[baud]
	if !ok {
		return fmt.Errorf("%w: baud rate %d", pkg.ErrInvalidParameter, baud)
	}
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("TCGETS: %w", err)
	}
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= code
	termios.Ispeed = code
	termios.Ospeed = code
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("TCSETS: %w", err)
	}
	return nil
}

func (p *ttyPort) Read(b []byte) (int, error)  { return p.tty.Input().Read(b) }
func (p *ttyPort) Write(b []byte) (int, error) { return p.tty.Output().Write(b) }

func (p *ttyPort) Close() error {
	p.restore()
	return p.tty.Close()
}
