package sd

import (
	"github.com/ardnew/softsd/bus"
)

// mockBus implements bus.Transport with a scripted receive queue.
type mockBus struct {
	rx []byte // bytes returned by Exchange in order, IdleByte once drained
	tx []byte // bytes sent through Exchange

	initErr  error
	selected bool
	speed    bus.Speed

	// TimerPending returns true this many times after each StartTimer.
	polls        int
	pollsLeft    int
	timerRunning bool
	starts       int
	stops        int

	calls int
	err   error
}

func newMockBus(rx ...byte) *mockBus {
	return &mockBus{rx: rx, polls: 4}
}

func (m *mockBus) Init() error {
	m.calls++
	return m.initErr
}

func (m *mockBus) Exchange(b byte) byte {
	m.calls++
	m.tx = append(m.tx, b)
	if len(m.rx) == 0 {
		return bus.IdleByte
	}
	r := m.rx[0]
	m.rx = m.rx[1:]
	return r
}

func (m *mockBus) Select()       { m.calls++; m.selected = true }
func (m *mockBus) Deselect()     { m.calls++; m.selected = false }
func (m *mockBus) SetHighSpeed() { m.calls++; m.speed = bus.SpeedHigh }
func (m *mockBus) SetLowSpeed()  { m.calls++; m.speed = bus.SpeedLow }

func (m *mockBus) StartTimer(ms uint32) {
	m.calls++
	m.starts++
	m.timerRunning = true
	m.pollsLeft = m.polls
}

func (m *mockBus) TimerPending() bool {
	m.calls++
	if !m.timerRunning || m.pollsLeft == 0 {
		return false
	}
	m.pollsLeft--
	return true
}

func (m *mockBus) StopTimer() {
	m.calls++
	m.stops++
	m.timerRunning = false
}

// Err implements bus.ErrorReporter.
func (m *mockBus) Err() error { return m.err }

// idle returns n idle bytes for building receive scripts.
func idle(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = bus.IdleByte
	}
	return b
}

// script concatenates receive fragments.
func script(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// frameBytes is the number of exchanges before the first response poll:
// the deselect flush, the select flush and the six-byte frame.
const frameBytes = 8

// mountedDevice returns a descriptor as Init would leave it.
func mountedDevice(ct CardType, sectors uint32) *Device {
	return &Device{mounted: true, cardType: ct, lastSector: sectors - 1}
}
