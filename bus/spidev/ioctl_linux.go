//go:build linux && (386 || amd64 || arm || arm64 || riscv64 || loong64)

package spidev

import "unsafe"

// ioctl encoding for the asm-generic layout.
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-29: argument size (size)
//	bits 30-31: direction (dir)
const (
	iocWrite = 1

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// spidev ioctl type character.
const spiIOCMagic = 'k'

// SPI mode flags from linux/spi/spi.h.
const (
	spiCPHA  = 0x01
	spiCPOL  = 0x02
	spiNoCS  = 0x40
	modeMask = spiCPHA | spiCPOL
)

// transfer matches the kernel's struct spi_ioc_transfer.
type transfer struct {
	txBuf          uint64
	rxBuf          uint64
	length         uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

var (
	ioctlWrMaxSpeedHz = iow(spiIOCMagic, 4, 4)
	ioctlWrMode32     = iow(spiIOCMagic, 5, 4)
	ioctlMessage1     = iow(spiIOCMagic, 0, unsafe.Sizeof(transfer{}))
)
