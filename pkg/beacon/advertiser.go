package beacon

import (
	"context"
	"time"

	"github.com/muxable/packbeacon/pkg/hci"
)

// Handle identifies a running advertising set.
type Handle uint8

// Params are the advertising set parameters. Intervals are in 0.625 ms units.
type Params struct {
	Handle         Handle
	SID            uint8
	IntervalMin    uint32
	IntervalMax    uint32
	Connectable    bool
	Extended       bool
	OwnAddressType hci.OwnAddressType
	TxPower        *int8
}

// DefaultParams advertise once a second as a connectable extended set.
func DefaultParams() Params {
	return Params{
		IntervalMin: 1600,
		IntervalMax: 1602,
		Connectable: true,
		Extended:    true,
	}
}

// IntervalUnit is the time base of advertising intervals.
const IntervalUnit = 625 * time.Microsecond

func (p Params) Interval() time.Duration {
	return time.Duration(p.IntervalMin) * IntervalUnit
}

// Advertiser is the host stack a Beacon drives.
type Advertiser interface {
	// Enable brings up the stack. It is called once before advertising.
	Enable(ctx context.Context) error
	// StartExtendedAdvertising creates the advertising set, sets its data and
	// starts it.
	StartExtendedAdvertising(ctx context.Context, payload Payload, params Params) (Handle, error)
	// UpdateData replaces the data of a running set.
	UpdateData(ctx context.Context, h Handle, payload Payload) error
	// Stop stops the set and releases it.
	Stop(ctx context.Context, h Handle) error
}
