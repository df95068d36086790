// Package emu emulates an SD or MMC card on the far side of an SPI bus.
//
// [Transport] implements [bus.Transport] against a [Card] whose blocks live
// in a [Medium], either memory or a locked image file. The card speaks the
// SPI-mode protocol: it needs the power-up clocks before GO_IDLE_STATE,
// checks command CRCs where the protocol requires them, answers the version
// and operating-condition handshake for its [Kind], and serves single-block
// reads and writes with data tokens, CRC16 and busy signalling.
//
// Timing is virtual. Every exchanged byte and every timer poll advances the
// transport's clock, so driver timeouts elapse deterministically. [Fault]
// bits inject misbehaviour for exercising error paths.
//
//	medium := emu.NewMemoryMedium(4096)
//	t, _ := emu.New(medium, emu.Config{Kind: emu.KindSDv1})
//	drv := sd.New(t, sd.DefaultConfig())
package emu
