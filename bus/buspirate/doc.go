// Package buspirate implements [bus.Transport] over a Bus Pirate in raw SPI
// binary mode, for driving a card from a desktop through a USB serial port.
//
// [New] runs the binary-mode handshake on any io.ReadWriter; [Open] opens
// the serial device with github.com/mattn/go-tty, puts it in raw mode and
// sets the baud rate. Every exchanged byte is a one-byte bulk SPI transfer,
// so throughput is bounded by the serial round trip rather than the SPI
// clock.
package buspirate
