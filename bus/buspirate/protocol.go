package buspirate

// Binary mode commands.
const (
	cmdReset     = 0x00 // enter or return to raw bitbang mode
	cmdSPI       = 0x01 // bitbang: enter raw SPI mode
	cmdExit      = 0x0F // bitbang: reset to the user terminal
	cmdCSLow     = 0x02
	cmdCSHigh    = 0x03
	cmdBulk      = 0x10 // 0001xxxx: transfer xxxx+1 bytes
	cmdPeriph    = 0x40 // 0100wxyz: power, pull-ups, AUX, CS
	cmdSetSpeed  = 0x60 // 01100xxx: clock rate
	cmdConfigure = 0x80 // 1000wxyz: output level, CKP, CKE, SMP

	replyOK = 0x01
)

// Peripheral bits.
const (
	periphPower = 0x08
	periphCS    = 0x01
)

// Configuration bits.
const (
	configOutput33 = 0x08 // 3.3 V push-pull outputs
	configCKE      = 0x02 // change output on active-to-idle edge (mode 0)
)

var (
	bitbangBanner = []byte("BBIO1")
	spiBanner     = []byte("SPI1")
)

// handshakeTries is the number of resets sent while waiting for the
// bitbang banner.
const handshakeTries = 20

// Rate is a Bus Pirate SPI clock selection.
type Rate byte

// SPI clock rates.
const (
	Rate30kHz Rate = iota
	Rate125kHz
	Rate250kHz
	Rate1MHz
	Rate2MHz
	Rate2600kHz
	Rate4MHz
	Rate8MHz
)

var rateHz = [...]int{30_000, 125_000, 250_000, 1_000_000, 2_000_000, 2_600_000, 4_000_000, 8_000_000}

// Hz returns the clock frequency of r.
func (r Rate) Hz() int {
	if int(r) < len(rateHz) {
		return rateHz[r]
	}
	return 0
}

// RateFor returns the fastest rate not above hz, or Rate30kHz.
func RateFor(hz int) Rate {
	best := Rate30kHz
	for r, f := range rateHz {
		if f <= hz {
			best = Rate(r)
		}
	}
	return best
}
