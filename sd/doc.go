// Package sd implements the SD/MMC card protocol in SPI mode.
//
// It is bus-agnostic and reaches the card only through the [bus.Transport]
// interface defined in the github.com/ardnew/softsd/bus package. A
// [Driver] binds a transport and timing [Config]; a [Device] describes the
// one card on that bus.
//
// # Initialization
//
// [Driver.Init] runs the power-up negotiation as a state machine:
//
//   - PowerUp: reset the bus, low clock, card deselected
//   - DummyClocks: idle bytes so the card enters SPI mode
//   - IdleWait: GO_IDLE_STATE until the card reports idle
//   - VersionProbe: SEND_IF_COND separates version 2 cards
//   - V2: SD_SEND_OP_COND with HCS, then READ_OCR for block addressing
//   - V1OrMMC: SD_SEND_OP_COND or SEND_OP_COND, CRC off, 512-byte blocks
//   - Finalize: decode the CSD capacity and switch to the high clock
//
// The sequence is attempted up to Config.InitAttempts times.
//
// # Transfers
//
// [Driver.ReadBlock] reads any contiguous byte range of one sector and
// [Driver.WriteBlock] writes exactly one sector. Neither retries; every
// failure is reported with a [pkg.Result]. Arguments are validated before
// the bus is touched, and every operation that reaches the bus ends with
// the card deselected.
//
// # Example
//
//	drv := sd.New(transport, sd.DefaultConfig())
//
//	var dev sd.Device
//	if r := drv.Init(&dev); !r.OK() {
//	    return r.Err()
//	}
//
//	buf := make([]byte, sd.BlockSize)
//	if r := drv.ReadBlock(&dev, buf, 0, 0, sd.BlockSize); !r.OK() {
//	    return r.Err()
//	}
package sd
