package sd

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ardnew/softsd/pkg"
)

// CID is the decoded SD card identification register.
type CID struct {
	ManufacturerID uint8
	OEMID          string
	ProductName    string
	Revision       uint8 // BCD major.minor
	SerialNumber   uint32
	Year           int
	Month          int
}

// String returns a one-line summary of the identification.
func (c CID) String() string {
	return fmt.Sprintf("%s %s rev %d.%d (mid 0x%02x, serial %08x, %04d-%02d)",
		c.OEMID, c.ProductName, c.Revision>>4, c.Revision&0x0F,
		c.ManufacturerID, c.SerialNumber, c.Year, c.Month)
}

// ParseCID decodes a 16-byte SD CID register.
func ParseCID(b []byte) (CID, bool) {
	if len(b) < registerSize {
		return CID{}, false
	}
	return CID{
		ManufacturerID: b[0],
		OEMID:          printable(b[1:3]),
		ProductName:    printable(b[3:8]),
		Revision:       b[8],
		SerialNumber:   binary.BigEndian.Uint32(b[9:13]),
		Year:           2000 + (int(b[13]&0x0F)<<4 | int(b[14]>>4)),
		Month:          int(b[14] & 0x0F),
	}, true
}

func printable(b []byte) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return '.'
		}
		return r
	}, string(b))
}

// ReadCID reads the 16-byte identification register into dst.
func (d *Driver) ReadCID(dev *Device, dst []byte) pkg.Result {
	if !dev.mounted {
		return pkg.ResultNotInitialized
	}
	if len(dst) < registerSize {
		return pkg.ResultParameterError
	}
	defer d.release()

	if !d.readRegister(cmdSendCID, dst) {
		return pkg.ResultDiskError
	}
	if d.transportErr() != nil {
		return pkg.ResultDiskError
	}
	return pkg.ResultOK
}
