package emu

import (
	"encoding/binary"

	"github.com/ardnew/softsd/pkg"
)

type cardState uint8

const (
	stateCommand cardState = iota
	stateWriteToken
	stateWriteData
)

// R1 response bits.
const (
	r1Idle         = 0x01
	r1IllegalCmd   = 0x04
	r1CRCError     = 0x08
	r1AddressError = 0x20
	r1ParamError   = 0x40
)

// Data response tokens. Upper bits are unspecified and set as real cards do.
const (
	dataAccepted   = 0xE5
	dataCRCError   = 0xEB
	dataWriteError = 0xED
)

const (
	tokenStartBlock = 0xFE
	hcsBit          = 1 << 30

	// powerUpClocks is the minimum number of idle bytes (74 clocks) a card
	// must see before it accepts GO_IDLE_STATE.
	powerUpClocks = 10
	historyLimit  = 4096
)

// Card is the card side of the SPI link.
type Card struct {
	kind   Kind
	config Config
	medium Medium
	geom   geometry
	csd    [registerSize]byte
	cid    [registerSize]byte

	powerClocks int
	spiMode     bool
	idle        bool
	appCmd      bool
	crcOn       bool
	pollsLeft   int

	state  cardState
	cmd    [6]byte
	cmdLen int
	out    []byte
	busy   int
	block  [blockSize + 2]byte
	blkLen int
	target uint64

	history []byte
}

func newCard(medium Medium, config Config) (*Card, error) {
	geom, err := fitGeometry(config.Kind, medium.Blocks())
	if err != nil {
		return nil, err
	}
	c := &Card{
		kind:   config.Kind,
		config: config,
		medium: medium,
		geom:   geom,
		csd:    buildCSD(config.Kind, geom),
		cid:    buildCID(config.Kind),
	}
	c.PowerCycle()
	return c, nil
}

// Kind returns the emulated card family.
func (c *Card) Kind() Kind { return c.kind }

// Blocks returns the capacity advertised in the CSD.
func (c *Card) Blocks() uint32 { return c.geom.blocks }

// CSD returns the card-specific data register.
func (c *Card) CSD() [registerSize]byte { return c.csd }

// CID returns the card identification register.
func (c *Card) CID() [registerSize]byte { return c.cid }

// Idle reports whether the card is still in the idle state.
func (c *Card) Idle() bool { return c.idle }

// SPIMode reports whether the card has accepted GO_IDLE_STATE.
func (c *Card) SPIMode() bool { return c.spiMode }

// History returns the indices of the commands executed since power-up.
// Application commands carry 0x80.
func (c *Card) History() []byte { return c.history }

// PowerCycle returns the card to its power-on state.
func (c *Card) PowerCycle() {
	c.powerClocks = 0
	c.spiMode = false
	c.idle = true
	c.appCmd = false
	c.crcOn = false
	c.pollsLeft = c.config.ReadyPolls
	c.history = nil
	c.deselect()
	c.busy = 0
}

// clock is one idle byte with chip select released.
func (c *Card) clock() {
	if c.powerClocks < powerUpClocks {
		c.powerClocks++
	}
}

// deselect drops any response in flight and aborts an incoming data block.
func (c *Card) deselect() {
	c.out = c.out[:0]
	c.cmdLen = 0
	c.state = stateCommand
	c.blkLen = 0
	if !c.config.Faults.Has(FaultStuckBusy) {
		c.busy = 0
	}
}

// exchange is one full-duplex byte with chip select asserted.
func (c *Card) exchange(in byte) byte {
	if c.config.Faults.Has(FaultSilent) {
		return 0xFF
	}
	out := c.shiftOut()
	c.shiftIn(in)
	return out
}

func (c *Card) shiftOut() byte {
	if len(c.out) > 0 {
		b := c.out[0]
		c.out = c.out[1:]
		return b
	}
	if c.busy > 0 {
		if !c.config.Faults.Has(FaultStuckBusy) {
			c.busy--
		}
		return 0x00
	}
	return 0xFF
}

func (c *Card) shiftIn(in byte) {
	switch c.state {
	case stateWriteToken:
		if in == tokenStartBlock {
			c.state = stateWriteData
			c.blkLen = 0
		}

	case stateWriteData:
		c.block[c.blkLen] = in
		c.blkLen++
		if c.blkLen == len(c.block) {
			c.state = stateCommand
			c.commit()
		}

	default:
		if c.busy > 0 {
			return
		}
		if c.cmdLen == 0 && in&0xC0 != 0x40 {
			return
		}
		c.cmd[c.cmdLen] = in
		c.cmdLen++
		if c.cmdLen == len(c.cmd) {
			c.cmdLen = 0
			c.execute()
		}
	}
}

func (c *Card) r1() byte {
	if c.idle {
		return r1Idle
	}
	return 0
}

// respond queues an R1 (and trailing bytes) after the command response delay.
func (c *Card) respond(r1 byte, extra ...byte) {
	for i := 0; i < c.config.ResponseDelay; i++ {
		c.out = append(c.out, 0xFF)
	}
	c.out = append(c.out, r1)
	c.out = append(c.out, extra...)
}

// sendData queues a data packet after the access delay.
func (c *Card) sendData(data []byte) {
	for i := 0; i < c.config.AccessDelay; i++ {
		c.out = append(c.out, 0xFF)
	}
	crc := crc16(data)
	c.out = append(c.out, tokenStartBlock)
	c.out = append(c.out, data...)
	c.out = append(c.out, byte(crc>>8), byte(crc))
}

func (c *Card) execute() {
	index := c.cmd[0] & 0x3F
	arg := binary.BigEndian.Uint32(c.cmd[1:5])
	app := c.appCmd
	c.appCmd = false

	if !c.spiMode {
		// Only GO_IDLE_STATE with a valid CRC after the power-up clocks
		// switches the card into SPI mode.
		if index != 0 || c.powerClocks < powerUpClocks || !c.crcValid() {
			pkg.LogDebug(pkg.ComponentEmu, "ignored command before SPI mode", "cmd", index)
			return
		}
	}

	if (c.crcOn || index == 0 || index == 8) && !c.crcValid() {
		pkg.LogDebug(pkg.ComponentEmu, "command CRC error", "cmd", index)
		c.respond(c.r1() | r1CRCError)
		return
	}

	if len(c.history) < historyLimit {
		if app {
			c.history = append(c.history, index|0x80)
		} else {
			c.history = append(c.history, index)
		}
	}

	pkg.LogDebug(pkg.ComponentEmu, "command", "cmd", index, "arg", arg, "app", app)

	switch index {
	case 0:
		c.spiMode = true
		c.idle = true
		c.pollsLeft = c.config.ReadyPolls
		c.respond(r1Idle)

	case 1:
		if c.kind != KindMMC {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		c.pollReady(true)

	case 8:
		if !c.kind.isV2() {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		voltage := byte(arg>>8) & 0x0F
		if voltage != 0x01 {
			voltage = 0
		}
		c.respond(c.r1(), 0x00, 0x00, voltage, byte(arg))

	case 9:
		c.sendRegister(c.csd[:])

	case 10:
		c.sendRegister(c.cid[:])

	case 16:
		switch {
		case c.idle:
			c.respond(c.r1() | r1IllegalCmd)
		case c.kind != KindSDHC && arg != blockSize:
			c.respond(r1ParamError)
		default:
			c.respond(0)
		}

	case 17:
		if c.idle {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		lba, ok := c.resolve(arg)
		if !ok {
			c.respond(r1AddressError)
			return
		}
		c.respond(0)
		if c.config.Faults.Has(FaultNoDataToken) {
			return
		}
		data := make([]byte, blockSize)
		if err := c.medium.ReadBlock(lba, data); err != nil {
			pkg.LogWarn(pkg.ComponentEmu, "medium read failed", "lba", lba, "error", err)
			c.out = append(c.out, 0x08) // data error token: out of range
			return
		}
		c.sendData(data)

	case 24:
		if c.idle {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		lba, ok := c.resolve(arg)
		if !ok {
			c.respond(r1AddressError)
			return
		}
		c.target = lba
		c.state = stateWriteToken
		c.respond(0)

	case 41:
		if !app || !c.kind.isSD() {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		c.pollReady(c.kind != KindSDHC || arg&hcsBit != 0)

	case 55:
		if !c.kind.isSD() {
			c.respond(c.r1() | r1IllegalCmd)
			return
		}
		c.appCmd = true
		c.respond(c.r1())

	case 58:
		var ocr [4]byte
		ocr[1], ocr[2] = 0xFF, 0x80 // 2.7-3.6 V
		if !c.idle {
			ocr[0] = 0x80
			if c.kind == KindSDHC {
				ocr[0] |= 0x40
			}
		}
		c.respond(c.r1(), ocr[:]...)

	case 59:
		c.crcOn = arg&1 != 0
		c.respond(c.r1())

	default:
		c.respond(c.r1() | r1IllegalCmd)
	}
}

// pollReady advances initialization. A card that cannot accept the host's
// capacity support stays idle.
func (c *Card) pollReady(accept bool) {
	if accept && !c.config.Faults.Has(FaultNeverReady) && c.idle {
		c.pollsLeft--
		if c.pollsLeft <= 0 {
			c.idle = false
			pkg.LogDebug(pkg.ComponentEmu, "card ready", "kind", c.kind)
		}
	}
	c.respond(c.r1())
}

func (c *Card) sendRegister(reg []byte) {
	if c.idle {
		c.respond(c.r1() | r1IllegalCmd)
		return
	}
	c.respond(0)
	c.sendData(reg)
}

// resolve converts a command address into a block index.
func (c *Card) resolve(arg uint32) (uint64, bool) {
	lba := uint64(arg)
	if c.kind != KindSDHC {
		if arg%blockSize != 0 {
			return 0, false
		}
		lba /= blockSize
	}
	return lba, lba < uint64(c.geom.blocks)
}

func (c *Card) crcValid() bool {
	return crc7(c.cmd[:5])<<1|1 == c.cmd[5]
}

// commit stores a received data block and queues the data response.
func (c *Card) commit() {
	data := c.block[:blockSize]
	received := uint16(c.block[blockSize])<<8 | uint16(c.block[blockSize+1])

	switch {
	case c.config.Faults.Has(FaultRejectWrite):
		c.out = append(c.out, dataCRCError)
		return
	case c.crcOn && received != crc16(data):
		c.out = append(c.out, dataCRCError)
		return
	}

	if err := c.medium.WriteBlock(c.target, data); err != nil {
		pkg.LogWarn(pkg.ComponentEmu, "medium write failed", "lba", c.target, "error", err)
		c.out = append(c.out, dataWriteError)
		return
	}
	c.out = append(c.out, dataAccepted)
	c.busy = c.config.BusyBytes
	if c.config.Faults.Has(FaultStuckBusy) && c.busy == 0 {
		c.busy = 1
	}
}
