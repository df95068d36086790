package sd

import "github.com/ardnew/softsd/pkg"

// Status probes whether the card still answers.
//
// The probe re-issues GO_IDLE_STATE, which returns an initialized card to
// the idle state; a card must be initialized again before further block
// transfers.
func (d *Driver) Status(dev *Device) pkg.Result {
	if !dev.mounted {
		return pkg.ResultNotInitialized
	}
	defer d.release()

	if r := d.sendCommand(cmdGoIdleState, 0); r&r1NoResponse != 0 {
		return pkg.ResultNoResponse
	}
	return pkg.ResultOK
}
