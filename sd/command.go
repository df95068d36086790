package sd

import (
	"github.com/ardnew/softsd/bus"
	"github.com/ardnew/softsd/pkg"
)

// sendCommand transmits one command frame and returns its R1 response.
//
// Application commands are preceded by APP_CMD; if that prefix is answered
// with anything beyond the idle bit its response is returned and the real
// command is not sent. A response with bit 7 set means the card stayed
// silent for the whole response window.
//
// The card is left selected so the caller can continue the transaction.
func (d *Driver) sendCommand(cmd byte, arg uint32) byte {
	if cmd&appCommand != 0 {
		cmd &^= appCommand
		if r := d.transmit(cmdAppCmd, 0); r > r1Idle {
			pkg.LogDebug(pkg.ComponentCommand, "APP_CMD refused",
				"cmd", cmd, "response", r)
			return r
		}
	}
	return d.transmit(cmd, arg)
}

func (d *Driver) transmit(cmd byte, arg uint32) byte {
	// Flush card state with a deselect/select cycle.
	d.bus.Deselect()
	d.bus.Exchange(bus.IdleByte)
	d.bus.Select()
	d.bus.Exchange(bus.IdleByte)

	d.bus.Exchange(frameStart | cmd)
	d.bus.Exchange(byte(arg >> 24))
	d.bus.Exchange(byte(arg >> 16))
	d.bus.Exchange(byte(arg >> 8))
	d.bus.Exchange(byte(arg))
	d.bus.Exchange(commandCRC(cmd))

	owned := d.startDeadline(d.config.ResponseTimeout)
	r := d.bus.Exchange(bus.IdleByte)
	for r&r1NoResponse != 0 && d.bus.TimerPending() {
		r = d.bus.Exchange(bus.IdleByte)
	}
	d.stopDeadline(owned)

	pkg.LogDebug(pkg.ComponentCommand, "command",
		"cmd", cmd, "arg", arg, "response", r)
	return r
}

// commandCRC returns the trailing frame byte. Only CMD0 and CMD8 are checked
// by the card before CRC is disabled, and the driver only ever sends them
// with the arguments their fixed CRCs were computed for.
func commandCRC(cmd byte) byte {
	switch cmd {
	case cmdGoIdleState:
		return crcGoIdle
	case cmdSendIfCond:
		return crcSendIfCond
	default:
		return crcDummy
	}
}

// receive fills dst with bytes clocked in from the card.
func (d *Driver) receive(dst []byte) {
	for i := range dst {
		dst[i] = d.bus.Exchange(bus.IdleByte)
	}
}

// waitToken polls for the data start token within the data token timeout
// and returns the last byte received.
func (d *Driver) waitToken() byte {
	owned := d.startDeadline(d.config.DataTokenTimeout)
	t := d.bus.Exchange(bus.IdleByte)
	for t == bus.IdleByte && d.bus.TimerPending() {
		t = d.bus.Exchange(bus.IdleByte)
	}
	d.stopDeadline(owned)
	return t
}
