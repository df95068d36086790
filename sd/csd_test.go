package sd

import "testing"

func TestDecodeCSD(t *testing.T) {
	v1 := make([]byte, 16)
	v1[5] = 0x59 // READ_BL_LEN 9
	v1[6] = 0x03 // C_SIZE[11:10]
	v1[7] = 0xEA // C_SIZE[9:2]
	v1[8] = 0x80 // C_SIZE[1:0] = 2
	v1[9] = 0x01 // C_SIZE_MULT[2:1]
	v1[10] = 0x80

	// READ_BL_LEN 9, C_SIZE 0x3AA, C_SIZE_MULT 3
	small := make([]byte, 16)
	small[5] = 0x09
	small[6] = 0x00
	small[7] = 0xEA
	small[8] = 0x80
	small[9] = 0x01
	small[10] = 0x80

	v2 := make([]byte, 16)
	v2[0] = 0x40
	v2[7], v2[8], v2[9] = 0x00, 0x10, 0x00

	mmc := append([]byte(nil), v1...)
	mmc[0] = 0x90

	unknown := make([]byte, 16)
	unknown[0] = 0xC0

	tests := []struct {
		name string
		csd  []byte
		ct   CardType
		want uint32
	}{
		// C_SIZE 0xFAA, MULT 3: (4011) * 32 * 512 / 512
		{"v1", v1, CardTypeSD1, 4011 * 32},
		{"v1 small", small, CardTypeSD1, (0x3AA + 1) * 32 * 512 / 512},
		{"v2", v2, CardTypeSD2 | CardTypeBlock, 0x1001 * 1024},
		{"MMC uses v1 layout", mmc, CardTypeMMC, 4011 * 32},
		{"unknown structure", unknown, CardTypeSD2, 0},
		{"short register", v1[:8], CardTypeSD1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeCSD(tt.csd, tt.ct); got != tt.want {
				t.Errorf("DecodeCSD = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeCSDReadBlockLength(t *testing.T) {
	csd := make([]byte, 16)
	csd[5] = 0x0A // 1024-byte blocks
	csd[7] = 0x01 // C_SIZE 4
	if got, want := DecodeCSD(csd, CardTypeSD1), uint32(5*4*2); got != want {
		t.Errorf("DecodeCSD = %d, want %d", got, want)
	}
}

func TestDecodeCSDLargeV2(t *testing.T) {
	csd := make([]byte, 16)
	csd[0] = 0x40
	csd[7], csd[8], csd[9] = 0x3F, 0xFF, 0xFF
	if got := DecodeCSD(csd, CardTypeSD2); got != 1<<32-1 {
		t.Errorf("DecodeCSD = %d, want clamp to %d", got, uint32(1<<32-1))
	}
}
