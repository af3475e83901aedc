package mfgdata

import "context"

// Provider supplies the telemetry advertised by the pack.
type Provider interface {
	Telemetry(ctx context.Context) (Fields, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Fields, error)

func (f ProviderFunc) Telemetry(ctx context.Context) (Fields, error) {
	return f(ctx)
}

// Static always returns the same fields.
type Static Fields

func (s Static) Telemetry(context.Context) (Fields, error) {
	return Fields(s), nil
}

// DefaultFields are bench values used until the pack is wired to its BMS.
// State of health is sent as 0x60; whether receivers read that as a percent
// or a status code is not settled.
func DefaultFields() Fields {
	return Fields{
		SerialNumber:     0x36853C85, // 914701445
		BMSMode:          0x02,
		StateOfHealth:    0x60,
		DischargeCounter: 0,
		BatteryHistory:   0x00,
		ConnectorStatus:  0x00,
		LatestToolID:     0x00B4,
		StateOfCharge:    100,
		FirmwareVersion:  0xDDFF,
	}
}
