package emu

import (
	"bytes"
	"testing"
)

func TestCRC7(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  byte
	}{
		{"GO_IDLE_STATE", []byte{0x40, 0, 0, 0, 0}, 0x95},
		{"SEND_IF_COND", []byte{0x48, 0, 0, 0x01, 0xAA}, 0x87},
		{"READ_SINGLE_BLOCK", []byte{0x51, 0, 0, 0, 0}, 0x55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crc7(tt.frame)<<1 | 1; got != tt.want {
				t.Errorf("crc7 = %#02x, want %#02x", got, tt.want)
			}
		})
	}
}

func TestCRC16(t *testing.T) {
	if got := crc16(bytes.Repeat([]byte{0xFF}, blockSize)); got != 0x7FA1 {
		t.Errorf("crc16(0xFF*512) = %#04x, want 0x7fa1", got)
	}
	if got := crc16([]byte("123456789")); got != 0x31C3 {
		t.Errorf("crc16(check) = %#04x, want 0x31c3", got)
	}
}
