// Package bus defines the transport interface between the SD/MMC driver and
// the serial bus it talks over.
//
// The driver in [github.com/ardnew/softsd/sd] implements all card protocol
// logic against [Transport]. A transport only exchanges bytes, drives
// chip-select, switches clock speed and keeps a polled deadline timer.
//
// # Design Principles
//
// The interface is deliberately small:
//
//   - Byte granular: every exchange is one byte in, one byte out
//   - Polled timing: deadlines are armed, polled and disarmed by the driver
//   - No cancellation: every polling loop in the driver ends on a deadline
//
// # Implementations
//
//   - [github.com/ardnew/softsd/bus/spidev] - Linux spidev hardware SPI
//   - [github.com/ardnew/softsd/bus/buspirate] - Bus Pirate serial SPI bridge
//   - [github.com/ardnew/softsd/bus/emu] - Emulated card on an image file
//
// Hardware transports embed [SystemTimer] for the deadline timer. The
// emulator uses a virtual clock so timeout paths run instantly in tests.
//
// # Implementing a Transport
//
//	type MyBus struct {
//	    bus.SystemTimer
//	    // Platform-specific fields
//	}
//
//	func (b *MyBus) Exchange(v byte) byte {
//	    // Shift v out, return the received byte
//	}
//
//	// ... implement Init, Select, Deselect, SetHighSpeed, SetLowSpeed
package bus
