package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softsd/pkg"
)

const (
	blockSize    = 512
	registerSize = 16

	// maxCSizeV1 is the largest 12-bit C_SIZE plus one.
	maxCSizeV1 = 4096
)

// geometry is the capacity encoding chosen for a medium.
type geometry struct {
	blocks    uint32 // advertised 512-byte blocks
	cSize     uint32
	cSizeMult uint8
	readBlLen uint8
}

// fitGeometry picks the CSD encoding that advertises the most of the
// medium's blocks for kind.
func fitGeometry(kind Kind, blocks uint64) (geometry, error) {
	if kind == KindSDHC {
		units := blocks / 1024 // C_SIZE counts 512 KiB units
		if units == 0 {
			return geometry{}, fmt.Errorf("%w: %s needs at least 512 KiB", pkg.ErrMediumTooSmall, kind)
		}
		if units >= 1<<22 {
			units = 1<<22 - 1
		}
		return geometry{
			blocks:    uint32(units * 1024),
			cSize:     uint32(units - 1),
			readBlLen: 9,
		}, nil
	}

	for readBlLen := uint8(9); readBlLen <= 11; readBlLen++ {
		for mult := uint8(0); mult <= 7; mult++ {
			unit := uint64(1) << (mult + 2) << (readBlLen - 9)
			n := blocks / unit
			if n == 0 {
				return geometry{}, fmt.Errorf("%w: %s needs at least %d blocks", pkg.ErrMediumTooSmall, kind, unit)
			}
			if n <= maxCSizeV1 {
				return geometry{
					blocks:    uint32(n * unit),
					cSize:     uint32(n - 1),
					cSizeMult: mult,
					readBlLen: readBlLen,
				}, nil
			}
		}
	}

	// Larger than the version 1 layout can describe: advertise the maximum.
	return geometry{
		blocks:    maxCSizeV1 << 9 << 2,
		cSize:     maxCSizeV1 - 1,
		cSizeMult: 7,
		readBlLen: 11,
	}, nil
}

// buildCSD encodes the CSD register for kind.
func buildCSD(kind Kind, g geometry) [registerSize]byte {
	var csd [registerSize]byte
	switch kind {
	case KindSDHC:
		csd = [registerSize]byte{
			0x40, 0x0E, 0x00, 0x32, 0x5B, 0x59, 0x00,
			byte(g.cSize>>16) & 0x3F, byte(g.cSize >> 8), byte(g.cSize),
			0x7F, 0x80, 0x0A, 0x40, 0x00, 0x00,
		}
	default:
		structure := byte(0x00)
		if kind == KindMMC {
			structure = 0x90 // CSD_STRUCTURE 2, SPEC_VERS 4
		}
		csd = [registerSize]byte{
			structure, 0x26, 0x00, 0x32, 0x5F,
			0x50 | g.readBlLen&0x0F,
			0x80 | byte(g.cSize>>10)&0x03,
			byte(g.cSize >> 2),
			byte(g.cSize&0x03)<<6 | 0x2D,
			0xB0 | (g.cSizeMult>>1)&0x03,
			(g.cSizeMult&0x01)<<7 | 0x7F,
			0x80, 0x0A, 0x40, 0x00, 0x00,
		}
	}
	csd[15] = crc7(csd[:15])<<1 | 1
	return csd
}

// buildCID encodes a fixed identification register.
func buildCID(kind Kind) [registerSize]byte {
	var cid [registerSize]byte
	cid[0] = 0x5E
	copy(cid[1:3], "SS")
	copy(cid[3:8], fmt.Sprintf("EM%-3s", kind.String())[:5])
	cid[8] = 0x10
	binary.BigEndian.PutUint32(cid[9:13], 0x00002A2A)
	cid[13] = 0x01 // year 2024
	cid[14] = 0x8A // month 10
	cid[15] = crc7(cid[:15])<<1 | 1
	return cid
}
