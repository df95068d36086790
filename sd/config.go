package sd

import "time"

// Config holds the driver's retry and timing parameters.
// Zero fields are replaced by the values of [DefaultConfig].
type Config struct {
	// InitAttempts is the number of full negotiation attempts.
	InitAttempts int

	// DummyClockBytes is the number of idle bytes clocked with the card
	// deselected at power-up. Values below 10 are raised to 10.
	DummyClockBytes int

	// PowerUpSettle is the wait after the dummy clocks before the first
	// command. A negative value disables the wait.
	PowerUpSettle time.Duration

	// IdleTimeout bounds the GO_IDLE_STATE loop.
	IdleTimeout time.Duration

	// V2ReadyTimeout bounds the ACMD41 loop of version 2 cards.
	V2ReadyTimeout time.Duration

	// LegacyReadyTimeout bounds the ACMD41/CMD1 loop of version 1 and MMC cards.
	LegacyReadyTimeout time.Duration

	// ResponseTimeout bounds the wait for an R1 response byte.
	ResponseTimeout time.Duration

	// DataTokenTimeout bounds the wait for a data start token.
	DataTokenTimeout time.Duration

	// WriteBusyTimeout bounds the wait for the card to finish programming.
	WriteBusyTimeout time.Duration

	// TranslateBlockAddress sends the unscaled sector index to block
	// addressed cards. When false, every card receives sector*512.
	TranslateBlockAddress bool
}

// DefaultConfig returns the standard timing parameters.
func DefaultConfig() Config {
	return Config{
		InitAttempts:       3,
		DummyClockBytes:    dummyClockBytes,
		PowerUpSettle:      500 * time.Millisecond,
		IdleTimeout:        500 * time.Millisecond,
		V2ReadyTimeout:     1000 * time.Millisecond,
		LegacyReadyTimeout: 250 * time.Millisecond,
		ResponseTimeout:    5 * time.Millisecond,
		DataTokenTimeout:   100 * time.Millisecond,
		WriteBusyTimeout:   250 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InitAttempts <= 0 {
		c.InitAttempts = def.InitAttempts
	}
	if c.DummyClockBytes < dummyClockBytes {
		c.DummyClockBytes = dummyClockBytes
	}
	switch {
	case c.PowerUpSettle == 0:
		c.PowerUpSettle = def.PowerUpSettle
	case c.PowerUpSettle < 0:
		c.PowerUpSettle = 0
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.V2ReadyTimeout <= 0 {
		c.V2ReadyTimeout = def.V2ReadyTimeout
	}
	if c.LegacyReadyTimeout <= 0 {
		c.LegacyReadyTimeout = def.LegacyReadyTimeout
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	if c.DataTokenTimeout <= 0 {
		c.DataTokenTimeout = def.DataTokenTimeout
	}
	if c.WriteBusyTimeout <= 0 {
		c.WriteBusyTimeout = def.WriteBusyTimeout
	}
	return c
}

// millis converts a duration to the timer's millisecond unit, rounding up.
func millis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32((d + time.Millisecond - 1) / time.Millisecond)
}
