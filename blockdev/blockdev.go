// Package blockdev adapts a mounted SD/MMC card to block and byte-stream
// interfaces.
//
// [Device] exposes the block interface of a mass-storage backend (block
// size, block count, multi-block Read and Write) and io.ReaderAt /
// io.WriterAt for byte ranges. Multi-block calls are loops of single-block
// card operations and stop at the first failure. Partial-sector writes are
// read-modify-write.
//
// A Device serializes access to the underlying driver and is safe for
// concurrent use.
package blockdev

import (
	"fmt"
	"io"
	"sync"

	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/sd"
)

// Device is a mounted card viewed as a block device.
type Device struct {
	driver *sd.Driver
	card   *sd.Device
	buf    [sd.BlockSize]byte
	mutex  sync.Mutex
}

var (
	_ io.ReaderAt = (*Device)(nil)
	_ io.WriterAt = (*Device)(nil)
)

// New returns a block device over card, which must already be mounted.
func New(driver *sd.Driver, card *sd.Device) (*Device, error) {
	if !card.Mounted() {
		return nil, pkg.ErrNotInitialized
	}
	return &Device{driver: driver, card: card}, nil
}

// BlockSize returns the sector size.
func (d *Device) BlockSize() uint32 {
	return sd.BlockSize
}

// BlockCount returns the number of sectors.
func (d *Device) BlockCount() uint64 {
	return d.card.Sectors()
}

// Size returns the capacity in bytes.
func (d *Device) Size() int64 {
	return int64(d.card.Capacity())
}

// IsReadOnly reports false; write protection is not sensed over SPI.
func (d *Device) IsReadOnly() bool {
	return false
}

// Sync is a no-op. Every write has completed programming when it returns.
func (d *Device) Sync() error {
	return nil
}

// Status probes the card. The probe returns the card to the idle state, so
// it must be initialized again before the next transfer.
func (d *Device) Status() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.driver.Status(d.card).Err()
}

// Read reads blocks starting at lba into buf and returns the number of
// blocks read.
func (d *Device) Read(lba uint64, blocks uint32, buf []byte) (uint32, error) {
	if err := d.check(lba, blocks, buf); err != nil {
		return 0, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	for i := uint32(0); i < blocks; i++ {
		sector := uint32(lba) + i
		dst := buf[i*sd.BlockSize : (i+1)*sd.BlockSize]
		if r := d.driver.ReadBlock(d.card, dst, sector, 0, sd.BlockSize); !r.OK() {
			return i, fmt.Errorf("read sector %d: %w", sector, r.Err())
		}
	}
	return blocks, nil
}

// Write writes blocks from buf starting at lba and returns the number of
// blocks written.
func (d *Device) Write(lba uint64, blocks uint32, buf []byte) (uint32, error) {
	if err := d.check(lba, blocks, buf); err != nil {
		return 0, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	for i := uint32(0); i < blocks; i++ {
		sector := uint32(lba) + i
		src := buf[i*sd.BlockSize : (i+1)*sd.BlockSize]
		if r := d.driver.WriteBlock(d.card, src, sector); !r.OK() {
			return i, fmt.Errorf("write sector %d: %w", sector, r.Err())
		}
	}
	return blocks, nil
}

func (d *Device) check(lba uint64, blocks uint32, buf []byte) error {
	if lba+uint64(blocks) > d.BlockCount() {
		return fmt.Errorf("%w: blocks %d+%d beyond %d", pkg.ErrParameter, lba, blocks, d.BlockCount())
	}
	if uint64(len(buf)) < uint64(blocks)*sd.BlockSize {
		return io.ErrShortBuffer
	}
	return nil
}

// ReadAt reads len(p) bytes at byte offset off. Ranges inside one sector are
// fetched without transferring the rest of the sector to the caller.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", pkg.ErrParameter)
	}
	size := d.Size()
	if off >= size {
		return 0, io.EOF
	}
	want := p
	if rem := size - off; int64(len(want)) > rem {
		want = want[:rem]
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	n := 0
	for n < len(want) {
		pos := off + int64(n)
		sector := uint32(pos / sd.BlockSize)
		offset := uint16(pos % sd.BlockSize)
		count := min(len(want)-n, sd.BlockSize-int(offset))
		if r := d.driver.ReadBlock(d.card, want[n:], sector, offset, uint16(count)); !r.OK() {
			return n, fmt.Errorf("read sector %d: %w", sector, r.Err())
		}
		n += count
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes len(p) bytes at byte offset off.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", pkg.ErrParameter)
	}
	if off+int64(len(p)) > d.Size() {
		return 0, fmt.Errorf("%w: write of %d bytes at %d beyond %d", pkg.ErrParameter, len(p), off, d.Size())
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		sector := uint32(pos / sd.BlockSize)
		offset := int(pos % sd.BlockSize)
		count := min(len(p)-n, sd.BlockSize-offset)

		src := p[n : n+count]
		if count < sd.BlockSize {
			if r := d.driver.ReadBlock(d.card, d.buf[:], sector, 0, sd.BlockSize); !r.OK() {
				return n, fmt.Errorf("read sector %d: %w", sector, r.Err())
			}
			copy(d.buf[offset:], src)
			src = d.buf[:]
		}
		if r := d.driver.WriteBlock(d.card, src, sector); !r.OK() {
			return n, fmt.Errorf("write sector %d: %w", sector, r.Err())
		}
		n += count
	}
	return n, nil
}
