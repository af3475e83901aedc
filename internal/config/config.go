// internal/config/config.go
package config

import (
	"time"

	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
)

const (
	BackendHCI   = "hci"
	BackendBlueZ = "bluez"
)

type Config struct {
	Beacon    BeaconConfig    `yaml:"beacon"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ---- BEACON ----

type BeaconConfig struct {
	Backend    string `yaml:"backend"`
	Device     int    `yaml:"device"` // hci device id, -1 = first available
	DeviceName string `yaml:"device_name"`

	MaxADLength int  `yaml:"max_ad_length"` // 0 = maximum for the advertising mode
	Extended    bool `yaml:"extended"`
	Connectable bool `yaml:"connectable"`

	IntervalMin uint32 `yaml:"interval_min"` // 0.625 ms units
	IntervalMax uint32 `yaml:"interval_max"`
	SID         uint8  `yaml:"sid"`
	Handle      uint8  `yaml:"handle"`
	TxPower     *int8  `yaml:"tx_power"` // dBm, controller chooses if unset

	RefreshInterval time.Duration `yaml:"refresh_interval"`
	ServiceUUIDs    []uint16      `yaml:"service_uuids"`
}

// ---- TELEMETRY ----

type TelemetryConfig struct {
	SerialNumber     uint64 `yaml:"serial_number"`
	BMSMode          uint8  `yaml:"bms_mode"`
	StateOfHealth    uint8  `yaml:"state_of_health"`
	DischargeCounter uint32 `yaml:"discharge_counter"`
	BatteryHistory   uint8  `yaml:"battery_history"`
	ConnectorStatus  uint8  `yaml:"connector_status"`
	LatestToolID     uint16 `yaml:"latest_tool_id"`
	StateOfCharge    uint8  `yaml:"state_of_charge"`
	FirmwareVersion  uint16 `yaml:"firmware_version"`
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	f := mfgdata.DefaultFields()
	p := beacon.DefaultParams()
	return &Config{
		Beacon: BeaconConfig{
			Backend:     BackendHCI,
			DeviceName:  "STIHL AP",
			Extended:    p.Extended,
			Connectable: p.Connectable,
			IntervalMin: p.IntervalMin,
			IntervalMax: p.IntervalMax,
		},
		Telemetry: TelemetryConfig{
			SerialNumber:     f.SerialNumber,
			BMSMode:          uint8(f.BMSMode),
			StateOfHealth:    f.StateOfHealth,
			DischargeCounter: f.DischargeCounter,
			BatteryHistory:   f.BatteryHistory,
			ConnectorStatus:  f.ConnectorStatus,
			LatestToolID:     f.LatestToolID,
			StateOfCharge:    f.StateOfCharge,
			FirmwareVersion:  f.FirmwareVersion,
		},
	}
}

func (t TelemetryConfig) Fields() mfgdata.Fields {
	return mfgdata.Fields{
		SerialNumber:     t.SerialNumber,
		BMSMode:          mfgdata.BMSMode(t.BMSMode),
		StateOfHealth:    t.StateOfHealth,
		DischargeCounter: t.DischargeCounter,
		BatteryHistory:   t.BatteryHistory,
		ConnectorStatus:  t.ConnectorStatus,
		LatestToolID:     t.LatestToolID,
		StateOfCharge:    t.StateOfCharge,
		FirmwareVersion:  t.FirmwareVersion,
	}
}

// ADLengthLimit is the largest advertising data the advertising mode allows.
func (b BeaconConfig) ADLengthLimit() int {
	if b.Extended {
		return hci.MaxExtendedAdvertisingDataLength
	}
	return hci.MaxLegacyAdvertisingDataLength
}

func (b BeaconConfig) Params() beacon.Params {
	return beacon.Params{
		Handle:      beacon.Handle(b.Handle),
		SID:         b.SID,
		IntervalMin: b.IntervalMin,
		IntervalMax: b.IntervalMax,
		Connectable: b.Connectable,
		Extended:    b.Extended,
		TxPower:     b.TxPower,
	}
}

// Payload is the advertising payload the configuration produces at start.
func (c *Config) Payload() beacon.Payload {
	p := beacon.Payload{
		Record:       mfgdata.Encode(c.Telemetry.Fields()),
		LocalName:    c.Beacon.DeviceName,
		ServiceUUIDs: c.Beacon.ServiceUUIDs,
	}
	if !c.Beacon.Extended && c.Beacon.Connectable {
		p.Flags = hci.FlagsDataTypeLEGeneralDiscoverableMode | hci.FlagsDataTypeBREDRNotSupported
	}
	return p
}
