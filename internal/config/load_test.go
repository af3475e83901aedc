// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muxable/packbeacon/pkg/mfgdata"
)

func TestParse_Full(t *testing.T) {
	raw := []byte(`
beacon:
  backend: bluez
  device: -1
  device_name: "AP 300"
  max_ad_length: 251
  extended: true
  connectable: false
  interval_min: 160
  interval_max: 320
  sid: 3
  tx_power: -4
  refresh_interval: 0s
  service_uuids: [0xFE43]
telemetry:
  serial_number: 0x0102030405
  bms_mode: 1
  state_of_health: 87
  discharge_counter: 4096
  latest_tool_id: 0x00B4
  state_of_charge: 42
  firmware_version: 0x0201
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := cfg.Beacon
	if b.Backend != BackendBlueZ || b.Device != -1 || b.DeviceName != "AP 300" {
		t.Errorf("beacon = %+v", b)
	}
	if b.Connectable || b.IntervalMin != 160 || b.IntervalMax != 320 || b.SID != 3 {
		t.Errorf("advertising parameters = %+v", b)
	}
	if b.TxPower == nil || *b.TxPower != -4 {
		t.Errorf("tx_power = %v, want -4", b.TxPower)
	}
	if len(b.ServiceUUIDs) != 1 || b.ServiceUUIDs[0] != 0xFE43 {
		t.Errorf("service_uuids = %#x", b.ServiceUUIDs)
	}

	f := cfg.Telemetry.Fields()
	want := mfgdata.Fields{
		SerialNumber:     0x0102030405,
		BMSMode:          1,
		StateOfHealth:    87,
		DischargeCounter: 4096,
		LatestToolID:     0x00B4,
		StateOfCharge:    42,
		FirmwareVersion:  0x0201,
	}
	if f != want {
		t.Errorf("fields = %+v, want %+v", f, want)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("beacon:\n  refresh_interval: 30s\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Beacon.RefreshInterval != 30*time.Second {
		t.Errorf("refresh_interval = %s, want 30s", cfg.Beacon.RefreshInterval)
	}
	if cfg.Beacon.Backend != BackendHCI || cfg.Beacon.IntervalMin != 1600 || !cfg.Beacon.Extended {
		t.Errorf("defaults lost: %+v", cfg.Beacon)
	}
	if cfg.Telemetry.Fields() != mfgdata.DefaultFields() {
		t.Errorf("telemetry = %+v, want defaults", cfg.Telemetry)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Beacon.DeviceName != "STIHL AP" {
		t.Errorf("device_name = %q", cfg.Beacon.DeviceName)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	if _, err := Parse([]byte("beacon:\n  intervall: 10\n")); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packbeacon.yaml")
	if err := os.WriteFile(path, []byte("beacon:\n  sid: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Beacon.SID != 7 {
		t.Errorf("sid = %d, want 7", cfg.Beacon.SID)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error, got nil")
	}
}
