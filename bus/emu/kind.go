package emu

import (
	"fmt"
	"strings"
)

// Kind selects the card family the emulator impersonates.
type Kind uint8

// Card kinds.
const (
	KindSDHC Kind = iota // SD version 2, high capacity, block addressed
	KindSDSC             // SD version 2, standard capacity, byte addressed
	KindSDv1             // SD version 1, byte addressed
	KindMMC              // MMC version 3, byte addressed
)

// String returns the kind name accepted by [ParseKind].
func (k Kind) String() string {
	switch k {
	case KindSDHC:
		return "sdhc"
	case KindSDSC:
		return "sdsc"
	case KindSDv1:
		return "sdv1"
	case KindMMC:
		return "mmc"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind returns the kind named s (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "sdhc", "sdxc":
		return KindSDHC, nil
	case "sdsc", "sdv2":
		return KindSDSC, nil
	case "sdv1", "sd1":
		return KindSDv1, nil
	case "mmc":
		return KindMMC, nil
	default:
		return 0, fmt.Errorf("unknown card kind %q", s)
	}
}

// isV2 reports whether the kind understands SEND_IF_COND.
func (k Kind) isV2() bool {
	return k == KindSDHC || k == KindSDSC
}

// isSD reports whether the kind understands application commands.
func (k Kind) isSD() bool {
	return k != KindMMC
}

// Fault is a bitmask of injected card misbehaviour.
type Fault uint8

// Injectable faults.
const (
	FaultNeverReady  Fault = 1 << iota // initialization never leaves the idle state
	FaultSilent                        // the card never drives the data line
	FaultNoDataToken                   // reads are accepted but no data follows
	FaultRejectWrite                   // data blocks are answered with a CRC error
	FaultStuckBusy                     // programming never finishes
)

// Has reports whether all bits of g are set in f.
func (f Fault) Has(g Fault) bool {
	return f&g == g
}
