package bluez

import (
	"context"
	"errors"
	"testing"

	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/mfgdata"
	"tinygo.org/x/bluetooth"
)

type fakeAdvertisement struct {
	opts    bluetooth.AdvertisementOptions
	started bool
	stopped bool
	err     error
}

func (f *fakeAdvertisement) Configure(opts bluetooth.AdvertisementOptions) error {
	f.opts = opts
	return f.err
}

func (f *fakeAdvertisement) Start() error {
	f.started = true
	return nil
}

func (f *fakeAdvertisement) Stop() error {
	f.stopped = true
	return nil
}

func newTestAdvertiser(adv *fakeAdvertisement) *Advertiser {
	return &Advertiser{
		enable:           func() error { return nil },
		address:          func() (bluetooth.MACAddress, error) { return bluetooth.MACAddress{}, nil },
		newAdvertisement: func() advertisement { return adv },
		active:           make(map[beacon.Handle]advertisement),
	}
}

func TestOptions(t *testing.T) {
	p := beacon.Payload{
		Record:       mfgdata.Encode(mfgdata.DefaultFields()),
		LocalName:    "STIHL AP",
		ServiceUUIDs: []uint16{0xFE43},
	}
	opts := Options(p, beacon.DefaultParams())

	if opts.LocalName != "STIHL AP" {
		t.Errorf("LocalName = %q", opts.LocalName)
	}
	if opts.Interval != bluetooth.Duration(1600) {
		t.Errorf("Interval = %d, want 1600", opts.Interval)
	}
	if len(opts.ManufacturerData) != 1 {
		t.Fatalf("ManufacturerData has %d elements, want 1", len(opts.ManufacturerData))
	}
	md := opts.ManufacturerData[0]
	if md.CompanyID != mfgdata.CompanyID {
		t.Errorf("CompanyID = %#04x, want %#04x", md.CompanyID, mfgdata.CompanyID)
	}
	if len(md.Data) != mfgdata.RecordLength-2 || md.Data[0] != mfgdata.ProtocolID {
		t.Errorf("Data = % X", md.Data)
	}
	if len(opts.ServiceUUIDs) != 1 || opts.ServiceUUIDs[0] != bluetooth.New16BitUUID(0xFE43) {
		t.Errorf("ServiceUUIDs = %v", opts.ServiceUUIDs)
	}
}

func broadcastParams() beacon.Params {
	params := beacon.DefaultParams()
	params.Connectable = false
	return params
}

func TestAdvertiserRejectsConnectable(t *testing.T) {
	fake := &fakeAdvertisement{}
	a := newTestAdvertiser(fake)
	p := beacon.Payload{Record: mfgdata.Encode(mfgdata.DefaultFields())}
	if _, err := a.StartExtendedAdvertising(context.Background(), p, beacon.DefaultParams()); !errors.Is(err, ErrConnectableUnsupported) {
		t.Fatalf("StartExtendedAdvertising() error = %v, want %v", err, ErrConnectableUnsupported)
	}
	if fake.started {
		t.Error("connectable advertisement started")
	}
}

func TestAdvertiserLifecycle(t *testing.T) {
	fake := &fakeAdvertisement{}
	a := newTestAdvertiser(fake)
	ctx := context.Background()

	b := beacon.New(a, mfgdata.Static(mfgdata.DefaultFields()),
		beacon.WithLocalName("AP"), beacon.WithParams(broadcastParams()))
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !fake.started {
		t.Fatal("advertisement not started")
	}
	if err := a.UpdateData(ctx, 0, beacon.Payload{}); !errors.Is(err, ErrUpdateUnsupported) {
		t.Errorf("UpdateData() error = %v, want %v", err, ErrUpdateUnsupported)
	}
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !fake.stopped {
		t.Error("advertisement not stopped")
	}
	if err := a.Stop(ctx, 0); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("second Stop() error = %v, want %v", err, ErrUnknownHandle)
	}
}

func TestAdvertiserConfigureError(t *testing.T) {
	fake := &fakeAdvertisement{err: errors.New("rejected")}
	a := newTestAdvertiser(fake)
	p := beacon.Payload{Record: mfgdata.Encode(mfgdata.DefaultFields())}
	if _, err := a.StartExtendedAdvertising(context.Background(), p, broadcastParams()); err == nil {
		t.Fatal("StartExtendedAdvertising() succeeded")
	}
	if fake.started {
		t.Error("advertisement started after configure failure")
	}
}
