// Package spidev implements [bus.Transport] on a Linux spidev character
// device (/dev/spidevB.C).
//
// Each [Transport.Exchange] is one full-duplex single-byte SPI_IOC_MESSAGE.
// Chip select follows the driver: while deselected the device runs in
// SPI_NO_CS mode so idle clocks leave the line high, and while selected every
// transfer sets cs_change so the line stays asserted between messages. Both
// behaviours depend on the controller driver honouring the flags; boards
// whose controller cannot should wire the card's CS to the spidev CS pin and
// rely on the per-message assertion.
//
// Exchange cannot return an error. A failed ioctl is logged, the byte reads
// as idle (0xFF), and the first failure is kept until the next Init and is
// reported by [Transport.Err].
package spidev
