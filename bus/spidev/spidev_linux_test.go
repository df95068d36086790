//go:build linux && (386 || amd64 || arm || arm64 || riscv64 || loong64)

package spidev

import (
	"path/filepath"
	"testing"
	"unsafe"
)

func TestTransferLayout(t *testing.T) {
	if size := unsafe.Sizeof(transfer{}); size != 32 {
		t.Errorf("sizeof(spi_ioc_transfer) = %d, want 32", size)
	}
	if off := unsafe.Offsetof(transfer{}.csChange); off != 27 {
		t.Errorf("offsetof(cs_change) = %d, want 27", off)
	}
}

func TestIoctlNumbers(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"SPI_IOC_MESSAGE(1)", ioctlMessage1, 0x40206B00},
		{"SPI_IOC_WR_MAX_SPEED_HZ", ioctlWrMaxSpeedHz, 0x40046B04},
		{"SPI_IOC_WR_MODE32", ioctlWrMode32, 0x40046B05},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, tt.got, tt.want)
		}
	}
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "spidev9.9")})
	if err == nil {
		t.Fatal("Open succeeded on a missing device")
	}
}
