package sd

import "strings"

// BlockSize is the size of one sector in bytes.
const BlockSize = 512

// Command indices. appCommand marks an application command (ACMD) that
// must be preceded by cmdAppCmd.
const (
	appCommand = 0x80

	cmdGoIdleState     = 0  // GO_IDLE_STATE
	cmdSendOpCond      = 1  // SEND_OP_COND (MMC)
	cmdSendIfCond      = 8  // SEND_IF_COND
	cmdSendCSD         = 9  // SEND_CSD
	cmdSendCID         = 10 // SEND_CID
	cmdSetBlockLen     = 16 // SET_BLOCKLEN
	cmdReadSingleBlock = 17 // READ_SINGLE_BLOCK
	cmdWriteBlock      = 24 // WRITE_SINGLE_BLOCK
	cmdAppCmd          = 55 // APP_CMD
	cmdReadOCR         = 58 // READ_OCR
	cmdCRCOnOff        = 59 // CRC_ON_OFF

	acmdSendOpCond = appCommand | 41 // SD_SEND_OP_COND
)

// Command framing.
const (
	frameStart = 0x40 // start bit 0, transmission bit 1

	crcGoIdle     = 0x95 // valid CRC7 + end bit for CMD0(0)
	crcSendIfCond = 0x87 // valid CRC7 + end bit for CMD8(0x1AA)
	crcDummy      = 0x01 // end bit only, CRC checking disabled
)

// R1 response bits.
const (
	r1Idle       = 1 << 0
	r1NoResponse = 1 << 7 // never set in a valid R1
)

// Negotiation arguments and register bits.
const (
	ifCondPattern  = 0x1AA   // 2.7-3.6V window + check pattern 0xAA
	ifCondVoltage  = 0x01    // echoed voltage-accepted nibble
	ifCondCheck    = 0xAA    // echoed check pattern
	argHCS         = 1 << 30 // host supports high capacity
	ocrCCS         = 0x40    // card capacity status, in the first OCR byte
	argBlockLength = BlockSize
)

// Data tokens.
const (
	tokenStartBlock  = 0xFE
	dataResponseMask = 0x1F
	dataAccepted     = 0x05
	blockCRCSize     = 2
)

// registerSize is the length of the CSD and CID registers.
const registerSize = 16

// dummyClockBytes is the minimum number of idle bytes (80 clocks) sent with
// the card deselected before the first command.
const dummyClockBytes = 10

// CardType is a bitmask describing the card family and addressing mode.
type CardType uint8

// Card type bits.
const (
	CardTypeMMC   CardType = 0x01 // MMC version 3
	CardTypeSD1   CardType = 0x02 // SD version 1
	CardTypeSD2   CardType = 0x04 // SD version 2
	CardTypeBlock CardType = 0x08 // Block addressing

	CardTypeSD = CardTypeSD1 | CardTypeSD2
)

// IsSD reports whether the card is an SD card of either version.
func (c CardType) IsSD() bool {
	return c&CardTypeSD != 0
}

// IsBlockAddressed reports whether commands take a block index instead of a
// byte address.
func (c CardType) IsBlockAddressed() bool {
	return c&CardTypeBlock != 0
}

// String returns the set bits joined by "|", or "none".
func (c CardType) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, bit := range []struct {
		mask CardType
		name string
	}{
		{CardTypeMMC, "MMC"},
		{CardTypeSD1, "SD1"},
		{CardTypeSD2, "SD2"},
		{CardTypeBlock, "BLOCK"},
	} {
		if c&bit.mask != 0 {
			parts = append(parts, bit.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}
