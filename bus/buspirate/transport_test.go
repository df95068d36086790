package buspirate

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/bus/emu"
	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/sd"
)

// fakePirate emulates the Bus Pirate binary protocol in front of an SPI
// slave.
type fakePirate struct {
	slave bus.Transport
	out   bytes.Buffer

	// terminalReplies is the number of resets ignored before the banner.
	terminalReplies int

	mode     string // "", "bbio", "spi"
	pending  int    // bulk bytes still expected
	cs       bool   // true while asserted (low)
	power    bool
	rate     Rate
	config   byte
	commands []byte
	writeErr error
}

func (f *fakePirate) Read(p []byte) (int, error) {
	if f.out.Len() == 0 {
		return 0, io.EOF
	}
	return f.out.Read(p)
}

func (f *fakePirate) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	for _, b := range p {
		f.handle(b)
	}
	return len(p), nil
}

func (f *fakePirate) handle(b byte) {
	if f.pending > 0 {
		f.pending--
		f.out.WriteByte(f.slave.Exchange(b))
		return
	}
	f.commands = append(f.commands, b)

	switch f.mode {
	case "":
		if b == cmdReset {
			if f.terminalReplies > 0 {
				f.terminalReplies--
				f.out.WriteString("HiZ>\x00")
				return
			}
			f.mode = "bbio"
			f.out.Write(bitbangBanner)
		}

	case "bbio":
		switch b {
		case cmdReset:
			f.out.Write(bitbangBanner)
		case cmdSPI:
			f.mode = "spi"
			f.out.Write(spiBanner)
		case cmdExit:
			f.mode = ""
			f.out.WriteByte(replyOK)
		}

	case "spi":
		switch {
		case b == cmdReset:
			f.mode = "bbio"
			f.out.Write(bitbangBanner)
		case b == cmdCSLow:
			f.cs = true
			f.slave.Select()
			f.out.WriteByte(replyOK)
		case b == cmdCSHigh:
			f.cs = false
			f.slave.Deselect()
			f.out.WriteByte(replyOK)
		case b&0xF0 == cmdBulk:
			f.pending = int(b&0x0F) + 1
			f.out.WriteByte(replyOK)
		case b&0xF0 == cmdPeriph:
			f.power = b&periphPower != 0
			f.out.WriteByte(replyOK)
		case b&0xF8 == cmdSetSpeed:
			f.rate = Rate(b & 0x07)
			if f.rate == Rate4MHz {
				f.slave.SetHighSpeed()
			} else {
				f.slave.SetLowSpeed()
			}
			f.out.WriteByte(replyOK)
		case b&0xF0 == cmdConfigure:
			f.config = b
			f.out.WriteByte(replyOK)
		default:
			f.out.WriteByte(0x00)
		}
	}
}

func newFakePirate(t *testing.T, kind emu.Kind) (*fakePirate, *emu.Transport) {
	t.Helper()
	card, err := emu.New(emu.NewMemoryMedium(4096), emu.Config{Kind: kind})
	if err != nil {
		t.Fatal(err)
	}
	return &fakePirate{slave: card}, card
}

func TestHandshake(t *testing.T) {
	f, _ := newFakePirate(t, emu.KindSDHC)
	f.terminalReplies = 3

	tr, err := New(f, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.mode != "spi" {
		t.Fatalf("mode = %q, want spi", f.mode)
	}
	if !f.power || f.rate != Rate250kHz || f.config != 0x8A {
		t.Errorf("power %v, rate %v, config %#02x", f.power, f.rate, f.config)
	}
	if tr.Err() != nil {
		t.Errorf("Err = %v", tr.Err())
	}

	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if f.mode != "" {
		t.Errorf("mode after Close = %q, want terminal", f.mode)
	}
	if b := tr.Exchange(0x00); b != bus.IdleByte {
		t.Errorf("Exchange after Close = %#02x", b)
	}
	if !errors.Is(tr.Err(), pkg.ErrClosed) {
		t.Errorf("Err after Close = %v", tr.Err())
	}
}

func TestHandshakeFailure(t *testing.T) {
	f, _ := newFakePirate(t, emu.KindSDHC)
	f.terminalReplies = handshakeTries

	if _, err := New(f, Config{}); !errors.Is(err, pkg.ErrHandshake) {
		t.Errorf("error = %v, want ErrHandshake", err)
	}
}

func TestExchangeWriteFailure(t *testing.T) {
	f, _ := newFakePirate(t, emu.KindSDHC)
	tr, err := New(f, Config{})
	if err != nil {
		t.Fatal(err)
	}

	f.writeErr = errors.New("unplugged")
	if b := tr.Exchange(0x40); b != bus.IdleByte {
		t.Errorf("Exchange = %#02x, want idle", b)
	}
	if tr.Err() == nil {
		t.Fatal("failure not recorded")
	}

	f.writeErr = nil
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if tr.Err() != nil {
		t.Error("Init did not clear the failure")
	}
}

func TestDriverOverBridge(t *testing.T) {
	f, card := newFakePirate(t, emu.KindSDv1)
	tr, err := New(f, Config{})
	if err != nil {
		t.Fatal(err)
	}

	d := sd.New(tr, sd.Config{PowerUpSettle: -1})
	var dev sd.Device
	if r := d.Init(&dev); r != pkg.ResultOK {
		t.Fatalf("Init = %v", r)
	}
	if f.rate != Rate4MHz {
		t.Errorf("rate = %v, want 4 MHz after init", f.rate)
	}
	if dev.CardType() != sd.CardTypeSD1 || dev.Sectors() != uint64(card.Card().Blocks()) {
		t.Errorf("type %v, sectors %d", dev.CardType(), dev.Sectors())
	}

	src := bytes.Repeat([]byte("bridge"), 86)[:sd.BlockSize]
	if r := d.WriteBlock(&dev, src, 3); r != pkg.ResultOK {
		t.Fatalf("WriteBlock = %v", r)
	}
	dst := make([]byte, sd.BlockSize)
	if r := d.ReadBlock(&dev, dst, 3, 0, sd.BlockSize); r != pkg.ResultOK {
		t.Fatalf("ReadBlock = %v", r)
	}
	if !bytes.Equal(dst, src) {
		t.Error("read back mismatch")
	}
	if f.cs {
		t.Error("chip select left asserted")
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		hz   int
		want Rate
	}{
		{400_000, Rate250kHz},
		{4_000_000, Rate4MHz},
		{10_000_000, Rate8MHz},
		{1, Rate30kHz},
	}
	for _, tt := range tests {
		if got := RateFor(tt.hz); got != tt.want {
			t.Errorf("RateFor(%d) = %v, want %v", tt.hz, got, tt.want)
		}
	}
	if Rate(9).Hz() != 0 {
		t.Error("invalid rate has a frequency")
	}
}

func TestConfigInvalid(t *testing.T) {
	if _, err := (Config{LowRate: Rate1MHz}).withDefaults(); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("error = %v, want ErrInvalidParameter", err)
	}
}
