package emu

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ardnew/softsd/pkg"
)

// Medium is the block store behind an emulated card.
type Medium interface {
	// Blocks returns the number of whole 512-byte blocks.
	Blocks() uint64

	// ReadBlock copies block lba into buf.
	ReadBlock(lba uint64, buf []byte) error

	// WriteBlock stores buf as block lba.
	WriteBlock(lba uint64, buf []byte) error

	// Sync flushes buffered writes.
	Sync() error

	// ReadOnly reports whether writes are refused.
	ReadOnly() bool

	// Close releases the medium.
	Close() error
}

// MemoryMedium is a Medium held in a byte slice.
type MemoryMedium struct {
	data     []byte
	readOnly bool
	mutex    sync.RWMutex
}

// NewMemoryMedium returns a zero-filled medium of the given number of blocks.
func NewMemoryMedium(blocks uint64) *MemoryMedium {
	return &MemoryMedium{data: make([]byte, blocks*blockSize)}
}

// Blocks returns the number of blocks.
func (m *MemoryMedium) Blocks() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return uint64(len(m.data)) / blockSize
}

// ReadBlock copies a block out of memory.
func (m *MemoryMedium) ReadBlock(lba uint64, buf []byte) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	offset := lba * blockSize
	if offset+blockSize > uint64(len(m.data)) {
		return io.EOF
	}
	if len(buf) < blockSize {
		return io.ErrShortBuffer
	}

	copy(buf, m.data[offset:offset+blockSize])
	return nil
}

// WriteBlock copies a block into memory.
func (m *MemoryMedium) WriteBlock(lba uint64, buf []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.readOnly {
		return pkg.ErrReadOnly
	}

	offset := lba * blockSize
	if offset+blockSize > uint64(len(m.data)) {
		return io.EOF
	}
	if len(buf) < blockSize {
		return io.ErrShortBuffer
	}

	copy(m.data[offset:offset+blockSize], buf)
	return nil
}

// Sync is a no-op.
func (m *MemoryMedium) Sync() error { return nil }

// ReadOnly reports whether the medium refuses writes.
func (m *MemoryMedium) ReadOnly() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.readOnly
}

// SetReadOnly sets the read-only flag.
func (m *MemoryMedium) SetReadOnly(readOnly bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.readOnly = readOnly
}

// Bytes returns the backing slice.
func (m *MemoryMedium) Bytes() []byte {
	return m.data
}

// Close is a no-op.
func (m *MemoryMedium) Close() error { return nil }

// FileMedium is a Medium backed by an image file. The file is locked for
// the lifetime of the medium so two emulators cannot share one image.
type FileMedium struct {
	file     *os.File
	blocks   uint64
	readOnly bool
	mutex    sync.RWMutex
}

// OpenFileMedium opens the image at path. A read-only medium takes a
// shared lock, otherwise the lock is exclusive.
func OpenFileMedium(path string, readOnly bool) (*FileMedium, error) {
	flags := os.O_RDWR
	if readOnly {
		flags = os.O_RDONLY
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	if err := lockFile(file, readOnly); err != nil {
		file.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		unlockFile(file)
		file.Close()
		return nil, err
	}

	return &FileMedium{
		file:     file,
		blocks:   uint64(stat.Size()) / blockSize,
		readOnly: readOnly,
	}, nil
}

// CreateImage creates (or truncates) a zero-filled image of the given
// number of blocks.
func CreateImage(path string, blocks uint64) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := file.Truncate(int64(blocks * blockSize)); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Blocks returns the number of whole blocks in the image.
func (f *FileMedium) Blocks() uint64 {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.blocks
}

// ReadBlock reads a block from the image.
func (f *FileMedium) ReadBlock(lba uint64, buf []byte) error {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if f.file == nil {
		return pkg.ErrClosed
	}
	if lba >= f.blocks {
		return io.EOF
	}
	if len(buf) < blockSize {
		return io.ErrShortBuffer
	}

	_, err := f.file.ReadAt(buf[:blockSize], int64(lba*blockSize))
	if err == io.EOF {
		err = nil
	}
	return err
}

// WriteBlock writes a block to the image.
func (f *FileMedium) WriteBlock(lba uint64, buf []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return pkg.ErrClosed
	}
	if f.readOnly {
		return pkg.ErrReadOnly
	}
	if lba >= f.blocks {
		return io.EOF
	}
	if len(buf) < blockSize {
		return io.ErrShortBuffer
	}

	_, err := f.file.WriteAt(buf[:blockSize], int64(lba*blockSize))
	return err
}

// Sync flushes image writes to disk.
func (f *FileMedium) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil || f.readOnly {
		return nil
	}
	return f.file.Sync()
}

// ReadOnly reports whether the image was opened read-only.
func (f *FileMedium) ReadOnly() bool {
	return f.readOnly
}

// Close unlocks and closes the image.
func (f *FileMedium) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return nil
	}
	unlockFile(f.file)
	err := f.file.Close()
	f.file = nil
	return err
}
