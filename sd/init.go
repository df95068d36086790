package sd

import "github.com/ardnew/softsd/pkg"

// initState is a step of the power-up negotiation.
type initState uint8

const (
	statePowerUp initState = iota
	stateDummyClocks
	stateIdleWait
	stateVersionProbe
	stateV2
	stateV1OrMMC
	stateFinalize
	stateReady
	stateFailed
)

// String returns the state name used in logs.
func (s initState) String() string {
	switch s {
	case statePowerUp:
		return "power-up"
	case stateDummyClocks:
		return "dummy-clocks"
	case stateIdleWait:
		return "idle-wait"
	case stateVersionProbe:
		return "version-probe"
	case stateV2:
		return "v2"
	case stateV1OrMMC:
		return "v1-or-mmc"
	case stateFinalize:
		return "finalize"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Init negotiates with the card and populates dev.
//
// The whole sequence is attempted up to Config.InitAttempts times. On
// success the bus is switched to high speed and dev is mounted; otherwise dev
// stays unmounted and [pkg.ResultNotInitialized] is returned. The card is
// released in either case.
func (d *Driver) Init(dev *Device) pkg.Result {
	dev.reset()
	defer d.release()

	for attempt := 1; attempt <= d.config.InitAttempts; attempt++ {
		if d.negotiate(dev) == stateReady {
			pkg.LogInfo(pkg.ComponentCard, "card mounted",
				"type", dev.cardType,
				"sectors", dev.Sectors(),
				"attempt", attempt)
			return pkg.ResultOK
		}
		pkg.LogWarn(pkg.ComponentCard, "initialization attempt failed",
			"attempt", attempt, "of", d.config.InitAttempts)
	}
	return pkg.ResultNotInitialized
}

// negotiate runs one attempt of the state machine and returns the terminal
// state, stateReady or stateFailed.
func (d *Driver) negotiate(dev *Device) initState {
	var ct CardType
	state := statePowerUp

	for {
		pkg.LogDebug(pkg.ComponentCard, "init state", "state", state)

		switch state {
		case statePowerUp:
			if err := d.bus.Init(); err != nil {
				pkg.LogError(pkg.ComponentCard, "bus init failed", "error", err)
				return stateFailed
			}
			d.bus.SetLowSpeed()
			d.bus.Deselect()
			state = stateDummyClocks

		case stateDummyClocks:
			d.skip(d.config.DummyClockBytes)
			if d.config.PowerUpSettle > 0 {
				owned := d.startDeadline(d.config.PowerUpSettle)
				for d.bus.TimerPending() {
				}
				d.stopDeadline(owned)
			}
			state = stateIdleWait

		case stateIdleWait:
			if !d.waitIdle() {
				return stateFailed
			}
			state = stateVersionProbe

		case stateVersionProbe:
			if d.sendCommand(cmdSendIfCond, ifCondPattern) != r1Idle {
				state = stateV1OrMMC
				break
			}
			var r7 [4]byte
			d.receive(r7[:])
			if r7[2]&0x0F != ifCondVoltage || r7[3] != ifCondCheck {
				pkg.LogWarn(pkg.ComponentCard, "interface condition mismatch",
					"voltage", r7[2], "check", r7[3])
				return stateFailed
			}
			state = stateV2

		case stateV2:
			ct = d.negotiateV2()
			state = stateFinalize

		case stateV1OrMMC:
			ct = d.negotiateLegacy()
			state = stateFinalize

		case stateFinalize:
			if ct == 0 {
				return stateFailed
			}
			sectors := d.sectors(ct)
			if sectors == 0 {
				pkg.LogWarn(pkg.ComponentCard, "card capacity unknown", "type", ct)
				return stateFailed
			}
			dev.cardType = ct
			dev.lastSector = sectors - 1
			d.bus.SetHighSpeed()
			dev.mounted = true
			return stateReady

		default:
			return stateFailed
		}
	}
}

// waitIdle repeats GO_IDLE_STATE until the card answers with exactly the
// idle bit or the idle timeout elapses.
func (d *Driver) waitIdle() bool {
	defer d.stopDeadline(d.startDeadline(d.config.IdleTimeout))
	for {
		if d.sendCommand(cmdGoIdleState, 0) == r1Idle {
			return true
		}
		if !d.bus.TimerPending() {
			return false
		}
	}
}

// negotiateV2 brings a version 2 card out of idle and reads its capacity
// class from the OCR.
func (d *Driver) negotiateV2() CardType {
	owned := d.startDeadline(d.config.V2ReadyTimeout)
	r := d.sendCommand(acmdSendOpCond, argHCS)
	for r != 0 && d.bus.TimerPending() {
		r = d.sendCommand(acmdSendOpCond, argHCS)
	}
	d.stopDeadline(owned)
	if r != 0 {
		pkg.LogDebug(pkg.ComponentCard, "v2 card stayed idle", "response", r)
		return 0
	}

	if d.sendCommand(cmdReadOCR, 0) != 0 {
		return 0
	}
	var ocr [4]byte
	d.receive(ocr[:])
	if ocr[0]&ocrCCS != 0 {
		return CardTypeSD2 | CardTypeBlock
	}
	return CardTypeSD2
}

// negotiateLegacy tells a version 1 SD card from an MMC, brings it out of
// idle, disables CRC checking and fixes the block length.
func (d *Driver) negotiateLegacy() CardType {
	ct, cmd := CardTypeSD1, byte(acmdSendOpCond)
	if d.sendCommand(acmdSendOpCond, 0) > r1Idle {
		ct, cmd = CardTypeMMC, cmdSendOpCond
	}
	pkg.LogDebug(pkg.ComponentCard, "legacy card", "type", ct)

	owned := d.startDeadline(d.config.LegacyReadyTimeout)
	r := d.sendCommand(cmd, 0)
	for r != 0 && d.bus.TimerPending() {
		r = d.sendCommand(cmd, 0)
	}
	d.stopDeadline(owned)
	if r != 0 {
		pkg.LogDebug(pkg.ComponentCard, "legacy card stayed idle", "response", r)
		return 0
	}

	if d.sendCommand(cmdCRCOnOff, 0) != 0 {
		return 0
	}
	if d.sendCommand(cmdSetBlockLen, argBlockLength) != 0 {
		return 0
	}
	return ct
}
