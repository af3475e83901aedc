// internal/config/telemetry.go
package config

import (
	"context"
	"fmt"

	"github.com/muxable/packbeacon/pkg/mfgdata"
)

// TelemetryProvider reads the telemetry section of the file at path on every
// call, so edits to the file reach the next refresh. Other sections are
// parsed but ignored.
func TelemetryProvider(path string) mfgdata.Provider {
	return mfgdata.ProviderFunc(func(ctx context.Context) (mfgdata.Fields, error) {
		if err := ctx.Err(); err != nil {
			return mfgdata.Fields{}, err
		}
		cfg, err := Load(path)
		if err != nil {
			return mfgdata.Fields{}, err
		}
		if cfg.Telemetry.SerialNumber > mfgdata.MaxSerialNumber {
			return mfgdata.Fields{}, fmt.Errorf("telemetry: serial_number %#x does not fit 5 bytes", cfg.Telemetry.SerialNumber)
		}
		return cfg.Telemetry.Fields(), nil
	})
}
