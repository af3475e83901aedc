package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
)

type recordingAdvertiser struct {
	started mfgdata.Record
	updates []mfgdata.Record
}

func (a *recordingAdvertiser) Enable(context.Context) error { return nil }

func (a *recordingAdvertiser) StartExtendedAdvertising(_ context.Context, p beacon.Payload, params beacon.Params) (beacon.Handle, error) {
	a.started = p.Record
	return params.Handle, nil
}

func (a *recordingAdvertiser) UpdateData(_ context.Context, _ beacon.Handle, p beacon.Payload) error {
	a.updates = append(a.updates, p.Record)
	return nil
}

func (a *recordingAdvertiser) Stop(context.Context, beacon.Handle) error { return nil }

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Beacon.DeviceName != "STIHL AP" || cfg.Beacon.IntervalMax != 1602 {
		t.Errorf("default beacon = %+v", cfg.Beacon)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("beacon:\n  interval_min: 800\n  interval_max: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(good)
	if err != nil {
		t.Fatalf("loadConfig(%s): %v", good, err)
	}
	if cfg.Beacon.IntervalMax != 800 {
		t.Errorf("interval_max = %d, want normalized to 800", cfg.Beacon.IntervalMax)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("beacon:\n  backend: zephyr\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(bad); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestTelemetryProviderFollowsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packbeacon.yaml")
	write := func(soc string) {
		t.Helper()
		body := "beacon:\n  backend: hci\ntelemetry:\n  state_of_charge: " + soc + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("90")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	adv := &recordingAdvertiser{}
	b := beacon.New(adv, telemetryProvider(path, cfg))
	ctx := context.Background()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := adv.started.Fields().StateOfCharge; got != 90 {
		t.Fatalf("started state_of_charge = %d, want 90", got)
	}

	// an unchanged file does not touch the set
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(adv.updates) != 0 {
		t.Fatalf("updates = %d, want 0", len(adv.updates))
	}

	write("37")
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(adv.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(adv.updates))
	}
	if got := adv.updates[0].Fields().StateOfCharge; got != 37 {
		t.Errorf("updated state_of_charge = %d, want 37", got)
	}
}

func TestTelemetryProviderWithoutFile(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	f, err := telemetryProvider("", cfg).Telemetry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f != cfg.Telemetry.Fields() {
		t.Errorf("fields = %+v, want %+v", f, cfg.Telemetry.Fields())
	}
}

func TestExitError(t *testing.T) {
	lost := make(chan struct{})
	if err := exitError(nil, lost); err != nil {
		t.Errorf("exitError() = %v, want nil", err)
	}
	if err := exitError(nil, nil); err != nil {
		t.Errorf("exitError() without controller = %v, want nil", err)
	}
	close(lost)
	if err := exitError(nil, lost); !errors.Is(err, hci.ErrClosed) {
		t.Errorf("exitError() = %v, want %v", err, hci.ErrClosed)
	}
	runErr := errors.New("boom")
	if err := exitError(runErr, lost); err != runErr {
		t.Errorf("exitError() = %v, want %v", err, runErr)
	}
}
