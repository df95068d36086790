package sd

import (
	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// ReadBlock reads count bytes starting at offset within sector into dst.
//
// offset must be in [0, 511], count in [1, 512], offset+count must not
// exceed the block and dst must hold count bytes; otherwise
// [pkg.ResultParameterError] is returned without touching the bus.
func (d *Driver) ReadBlock(dev *Device, dst []byte, sector uint32, offset, count uint16) pkg.Result {
	if !dev.mounted {
		return pkg.ResultNotInitialized
	}
	if sector > dev.lastSector || count == 0 ||
		int(offset)+int(count) > BlockSize || len(dst) < int(count) {
		return pkg.ResultParameterError
	}

	d.stats.Reads++
	defer d.release()

	if r := d.sendCommand(cmdReadSingleBlock, d.address(dev, sector)); r != 0 {
		pkg.LogDebug(pkg.ComponentBlock, "read command refused",
			"sector", sector, "response", r)
		return pkg.ResultDiskError
	}

	if t := d.waitToken(); t != tokenStartBlock {
		pkg.LogDebug(pkg.ComponentBlock, "read data token missing",
			"sector", sector, "token", t)
		return pkg.ResultDiskError
	}

	d.skip(int(offset))
	d.receive(dst[:count])
	d.skip(BlockSize + blockCRCSize - int(offset) - int(count))

	if d.transportErr() != nil {
		return pkg.ResultDiskError
	}
	return pkg.ResultOK
}

// WriteBlock writes one full block from src to sector.
//
// src must hold at least 512 bytes and sector must not exceed the last
// sector; otherwise [pkg.ResultParameterError] is returned without touching
// the bus.
func (d *Driver) WriteBlock(dev *Device, src []byte, sector uint32) pkg.Result {
	if !dev.mounted {
		return pkg.ResultNotInitialized
	}
	if sector > dev.lastSector || len(src) < BlockSize {
		return pkg.ResultParameterError
	}

	d.stats.Writes++
	defer d.release()

	if r := d.sendCommand(cmdWriteBlock, d.address(dev, sector)); r != 0 {
		pkg.LogDebug(pkg.ComponentBlock, "write command refused",
			"sector", sector, "response", r)
		return pkg.ResultDiskError
	}

	d.bus.Exchange(tokenStartBlock)
	for _, b := range src[:BlockSize] {
		d.bus.Exchange(b)
	}
	d.skip(blockCRCSize)

	if resp := d.bus.Exchange(bus.IdleByte); resp&dataResponseMask != dataAccepted {
		pkg.LogDebug(pkg.ComponentBlock, "write data rejected",
			"sector", sector, "response", resp)
		return pkg.ResultRejected
	}

	// The card holds the data line low while programming.
	owned := d.startDeadline(d.config.WriteBusyTimeout)
	line := d.bus.Exchange(bus.IdleByte)
	for line == 0 && d.bus.TimerPending() {
		line = d.bus.Exchange(bus.IdleByte)
	}
	d.stopDeadline(owned)

	if line == 0 {
		pkg.LogDebug(pkg.ComponentBlock, "write busy timeout", "sector", sector)
		return pkg.ResultBusy
	}
	if d.transportErr() != nil {
		return pkg.ResultDiskError
	}
	return pkg.ResultOK
}
