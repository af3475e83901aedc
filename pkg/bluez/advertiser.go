// Package bluez advertises through the host Bluetooth daemon instead of
// taking the controller over with an HCI user channel. The daemon owns the
// advertising set, so only the properties it exposes can be set.
package bluez

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/hci"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

var (
	// ErrUpdateUnsupported is returned by UpdateData. The daemon has no way to
	// replace the data of a registered advertisement.
	ErrUpdateUnsupported = errors.New("bluez: advertising data cannot be updated")
	ErrUnknownHandle     = errors.New("bluez: unknown advertising handle")
	// ErrConnectableUnsupported is returned for connectable parameters. The
	// advertisement is always registered as a broadcast.
	ErrConnectableUnsupported = errors.New("bluez: connectable advertising is not supported")
)

type advertisement interface {
	Configure(bluetooth.AdvertisementOptions) error
	Start() error
	Stop() error
}

type Advertiser struct {
	enable           func() error
	address          func() (bluetooth.MACAddress, error)
	newAdvertisement func() advertisement

	mu     sync.Mutex
	active map[beacon.Handle]advertisement
}

// NewAdvertiser uses adapter, or bluetooth.DefaultAdapter if nil.
func NewAdvertiser(adapter *bluetooth.Adapter) *Advertiser {
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	return &Advertiser{
		enable:           adapter.Enable,
		address:          adapter.Address,
		newAdvertisement: func() advertisement { return adapter.DefaultAdvertisement() },
		active:           make(map[beacon.Handle]advertisement),
	}
}

func (a *Advertiser) Enable(ctx context.Context) error {
	if err := a.enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	if addr, err := a.address(); err == nil {
		zap.L().Info("adapter ready", zap.String("address", addr.String()))
	}
	return ctx.Err()
}

// Options converts a payload and parameters into the daemon's advertisement
// properties. Flags are managed by the daemon and are not copied.
func Options(payload beacon.Payload, params beacon.Params) bluetooth.AdvertisementOptions {
	opts := bluetooth.AdvertisementOptions{
		LocalName: payload.LocalName,
		Interval:  bluetooth.NewDuration(params.Interval()),
		ManufacturerData: []bluetooth.ManufacturerDataElement{
			{CompanyID: payload.Record.CompanyID(), Data: payload.Record.Payload()},
		},
	}
	for _, u := range payload.ServiceUUIDs {
		opts.ServiceUUIDs = append(opts.ServiceUUIDs, bluetooth.New16BitUUID(u))
	}
	return opts
}

func (a *Advertiser) StartExtendedAdvertising(ctx context.Context, payload beacon.Payload, params beacon.Params) (beacon.Handle, error) {
	if params.Connectable {
		return 0, ErrConnectableUnsupported
	}
	if _, err := payload.AdvertisingData(hci.MaxExtendedAdvertisingDataLength); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.active[params.Handle]; ok {
		return 0, fmt.Errorf("bluez: handle %d already advertising", params.Handle)
	}

	adv := a.newAdvertisement()
	if err := adv.Configure(Options(payload, params)); err != nil {
		return 0, fmt.Errorf("configure advertisement: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := adv.Start(); err != nil {
		return 0, fmt.Errorf("start advertisement: %w", err)
	}
	a.active[params.Handle] = adv
	return params.Handle, nil
}

func (a *Advertiser) UpdateData(ctx context.Context, h beacon.Handle, payload beacon.Payload) error {
	return ErrUpdateUnsupported
}

func (a *Advertiser) Stop(ctx context.Context, h beacon.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	adv, ok := a.active[h]
	if !ok {
		return ErrUnknownHandle
	}
	if err := adv.Stop(); err != nil {
		return fmt.Errorf("stop advertisement: %w", err)
	}
	delete(a.active, h)
	return nil
}
