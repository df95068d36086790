package sd

import "github.com/ardnew/softsd/pkg"

// CSD register structure versions, from bits [127:126].
const (
	csdVersion1 = 0 // SDSC and MMC layout
	csdVersion2 = 1 // SDHC/SDXC layout
)

// DecodeCSD returns the number of 512-byte sectors described by a 16-byte
// CSD register, or 0 if the register cannot be decoded.
//
// MMC registers always use the version 1 layout. SD registers select their
// layout with the CSD_STRUCTURE field.
//
//	v1: (C_SIZE+1) * 2^(C_SIZE_MULT+2) * 2^READ_BL_LEN / 512
//	v2: (C_SIZE+1) * 1024
func DecodeCSD(csd []byte, ct CardType) uint32 {
	if len(csd) < registerSize {
		return 0
	}

	version := csd[0] >> 6
	if ct&CardTypeMMC != 0 {
		version = csdVersion1
	}

	var sectors uint64
	switch version {
	case csdVersion1:
		// READ_BL_LEN [83:80]
		readBlLen := uint(csd[5] & 0x0F)
		// C_SIZE [73:62]
		cSize := uint64(csd[6]&0x03)<<10 | uint64(csd[7])<<2 | uint64(csd[8]>>6)
		// C_SIZE_MULT [49:47]
		cSizeMult := uint(csd[9]&0x03)<<1 | uint(csd[10]>>7)
		sectors = (cSize + 1) << (cSizeMult + 2) << readBlLen / BlockSize

	case csdVersion2:
		// C_SIZE [69:48], in units of 512 KiB
		cSize := uint64(csd[7]&0x3F)<<16 | uint64(csd[8])<<8 | uint64(csd[9])
		sectors = (cSize + 1) * 1024

	default:
		pkg.LogWarn(pkg.ComponentCard, "unsupported CSD structure", "version", version)
		return 0
	}

	if sectors > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(sectors)
}

// readRegister reads a 16-byte register (CSD or CID) into dst. The card is
// left selected.
func (d *Driver) readRegister(cmd byte, dst []byte) bool {
	if r := d.sendCommand(cmd, 0); r != 0 {
		pkg.LogDebug(pkg.ComponentCard, "register read refused", "cmd", cmd, "response", r)
		return false
	}
	if t := d.waitToken(); t != tokenStartBlock {
		pkg.LogDebug(pkg.ComponentCard, "register data token missing", "cmd", cmd, "token", t)
		return false
	}
	d.receive(dst[:registerSize])
	d.skip(blockCRCSize)
	return true
}

// sectors fetches and decodes the CSD, returning 0 if capacity is unknown.
func (d *Driver) sectors(ct CardType) uint32 {
	var csd [registerSize]byte
	ok := d.readRegister(cmdSendCSD, csd[:])
	d.release()
	if !ok {
		return 0
	}
	return DecodeCSD(csd[:], ct)
}
