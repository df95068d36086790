package sd

// Device is the descriptor of one card.
//
// The zero value is an unmounted device. Only [Driver.Init] writes the
// descriptor; every other operation reads it and fails fast with
// [pkg.ResultNotInitialized] while it is unmounted.
type Device struct {
	mounted    bool
	cardType   CardType
	lastSector uint32
}

// Mounted reports whether initialization succeeded.
func (d *Device) Mounted() bool {
	return d.mounted
}

// CardType returns the negotiated card type, zero while unmounted.
func (d *Device) CardType() CardType {
	return d.cardType
}

// LastSector returns the highest valid sector index.
// The value is meaningless while the device is unmounted.
func (d *Device) LastSector() uint32 {
	return d.lastSector
}

// Sectors returns the number of addressable sectors, or 0 while unmounted.
func (d *Device) Sectors() uint64 {
	if !d.mounted {
		return 0
	}
	return uint64(d.lastSector) + 1
}

// Capacity returns the card capacity in bytes, or 0 while unmounted.
func (d *Device) Capacity() uint64 {
	return d.Sectors() * BlockSize
}

func (d *Device) reset() {
	d.mounted = false
	d.cardType = 0
	d.lastSector = 0
}
