package emu

import (
	"errors"
	"testing"

	"github.com/ardnew/softsd/pkg"
)

// decode mirrors the host-side capacity formula.
func decode(csd [registerSize]byte) uint64 {
	if csd[0]>>6 == 1 {
		c := uint64(csd[7]&0x3F)<<16 | uint64(csd[8])<<8 | uint64(csd[9])
		return (c + 1) * 1024
	}
	bl := uint(csd[5] & 0x0F)
	c := uint64(csd[6]&0x03)<<10 | uint64(csd[7])<<2 | uint64(csd[8]>>6)
	m := uint(csd[9]&0x03)<<1 | uint(csd[10]>>7)
	return (c + 1) << (m + 2) << bl / blockSize
}

func TestFitGeometry(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		blocks uint64
		want   uint32
	}{
		{"SDHC exact", KindSDHC, 8192, 8192},
		{"SDHC rounds down", KindSDHC, 8192 + 1000, 8192},
		{"SDv1 small", KindSDv1, 1000, 1000},
		{"SDv1 odd", KindSDv1, 1001, 1000},
		{"SDSC needs multiplier", KindSDSC, 65536, 65536},
		{"MMC", KindMMC, 30048, 30048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := fitGeometry(tt.kind, tt.blocks)
			if err != nil {
				t.Fatalf("fitGeometry: %v", err)
			}
			if g.blocks != tt.want {
				t.Errorf("blocks = %d, want %d", g.blocks, tt.want)
			}
			csd := buildCSD(tt.kind, g)
			if got := decode(csd); got != uint64(g.blocks) {
				t.Errorf("CSD decodes to %d blocks, want %d", got, g.blocks)
			}
			if csd[15]&1 != 1 {
				t.Error("CSD end bit not set")
			}
		})
	}
}

func TestFitGeometryTooSmall(t *testing.T) {
	for _, kind := range []Kind{KindSDHC, KindSDv1} {
		if _, err := fitGeometry(kind, 2); !errors.Is(err, pkg.ErrMediumTooSmall) {
			t.Errorf("%s: error = %v, want ErrMediumTooSmall", kind, err)
		}
	}
}

func TestBuildCIDDate(t *testing.T) {
	cid := buildCID(KindSDHC)
	year := 2000 + (int(cid[13]&0x0F)<<4 | int(cid[14]>>4))
	month := int(cid[14] & 0x0F)
	if year != 2024 || month != 10 {
		t.Errorf("date = %d-%d, want 2024-10", year, month)
	}
	if string(cid[1:3]) != "SS" {
		t.Errorf("OEM = %q", cid[1:3])
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindSDHC, KindSDSC, KindSDv1, KindMMC} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("floppy"); err == nil {
		t.Error("ParseKind(floppy) succeeded")
	}
}
