// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
)

const (
	minInterval = 0x000020
	maxInterval = 0xFFFFFF
	maxSID      = 0x0F
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	b := cfg.Beacon

	// ------------------------------------------------------------
	// BACKEND
	// ------------------------------------------------------------

	switch b.Backend {
	case BackendHCI:
		if b.Device < -1 {
			return fmt.Errorf("beacon: device %d is not a valid hci device id", b.Device)
		}
		if b.Handle > uint8(hci.MaxAdvertisingHandle) {
			return fmt.Errorf("beacon: handle %#x exceeds %#x", b.Handle, hci.MaxAdvertisingHandle)
		}
	case BackendBlueZ:
		// the daemon registers every advertisement as a broadcast
		if b.Connectable {
			return fmt.Errorf("beacon: connectable advertising is not supported by the %s backend", BackendBlueZ)
		}
		if b.RefreshInterval > 0 {
			return fmt.Errorf("beacon: refresh_interval is not supported by the %s backend", BackendBlueZ)
		}
	default:
		return fmt.Errorf("beacon: unknown backend %q (want %q or %q)", b.Backend, BackendHCI, BackendBlueZ)
	}

	if b.RefreshInterval < 0 {
		return fmt.Errorf("beacon: refresh_interval %s is negative", b.RefreshInterval)
	}

	// ------------------------------------------------------------
	// ADVERTISING PARAMETERS
	// ------------------------------------------------------------

	intervalMax := b.IntervalMax
	if intervalMax == 0 {
		intervalMax = b.IntervalMin
	}
	if b.IntervalMin < minInterval || b.IntervalMin > maxInterval {
		return fmt.Errorf("beacon: interval_min %#x outside %#x..%#x", b.IntervalMin, minInterval, maxInterval)
	}
	if intervalMax < b.IntervalMin || intervalMax > maxInterval {
		return fmt.Errorf("beacon: interval_max %#x outside %#x..%#x", intervalMax, b.IntervalMin, maxInterval)
	}
	if !b.Extended && intervalMax > hci.MaxLegacyAdvertisingInterval {
		return fmt.Errorf("beacon: interval_max %#x exceeds %#x for legacy advertising", intervalMax, hci.MaxLegacyAdvertisingInterval)
	}
	if b.SID > maxSID {
		return fmt.Errorf("beacon: sid %d exceeds %d", b.SID, maxSID)
	}

	// ------------------------------------------------------------
	// ADVERTISING DATA
	// ------------------------------------------------------------

	// device_name sanity (ASCII only)
	for i := 0; i < len(b.DeviceName); i++ {
		if b.DeviceName[i] > 0x7F {
			return errors.New("beacon: device_name must contain ASCII characters only")
		}
	}

	limit := b.ADLengthLimit()
	if b.MaxADLength < 0 || b.MaxADLength > limit {
		return fmt.Errorf("beacon: max_ad_length %d outside 0..%d", b.MaxADLength, limit)
	}
	if b.MaxADLength > 0 {
		limit = b.MaxADLength
	}

	if cfg.Telemetry.SerialNumber > mfgdata.MaxSerialNumber {
		return fmt.Errorf("telemetry: serial_number %#x does not fit 5 bytes", cfg.Telemetry.SerialNumber)
	}

	p := cfg.Payload()
	if _, err := p.AdvertisingData(limit); err != nil {
		return fmt.Errorf("beacon: device_name %q: %w (at most %d characters fit)",
			b.DeviceName, err, p.MaxLocalNameLength(limit))
	}

	return nil
}
