// Package beacon broadcasts a battery pack's manufacturer data record as a
// BLE advertising set.
package beacon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
	"go.uber.org/zap"
)

var (
	ErrAlreadyStarted = errors.New("beacon: already started")
	ErrNotStarted     = errors.New("beacon: not started")
)

// Beacon owns one advertising set carrying the pack record. It is safe for
// concurrent use.
type Beacon struct {
	advertiser Advertiser
	provider   mfgdata.Provider

	localName    string
	serviceUUIDs []uint16
	params       Params
	maxADLength  int
	refresh      time.Duration

	mu      sync.Mutex
	started bool
	handle  Handle
	record  mfgdata.Record
}

// Option configures a Beacon.
type Option func(*Beacon)

// WithLocalName adds a Complete Local Name AD structure.
func WithLocalName(name string) Option {
	return func(b *Beacon) { b.localName = name }
}

// WithServiceUUIDs adds an incomplete list of 16-bit service UUIDs.
func WithServiceUUIDs(uuids ...uint16) Option {
	return func(b *Beacon) { b.serviceUUIDs = uuids }
}

// WithParams replaces DefaultParams.
func WithParams(p Params) Option {
	return func(b *Beacon) { b.params = p }
}

// WithMaxADLength caps the advertising data length checked before the
// advertiser is touched. Zero uses the protocol maximum.
func WithMaxADLength(n int) Option {
	return func(b *Beacon) { b.maxADLength = n }
}

// WithRefreshInterval makes Run re-read telemetry and replace the advertising
// data every d. Zero keeps the first record for the life of the set.
func WithRefreshInterval(d time.Duration) Option {
	return func(b *Beacon) { b.refresh = d }
}

// New returns a stopped Beacon that reads telemetry from provider.
func New(advertiser Advertiser, provider mfgdata.Provider, opts ...Option) *Beacon {
	b := &Beacon{
		advertiser: advertiser,
		provider:   provider,
		params:     DefaultParams(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Beacon) maxLength() int {
	if b.maxADLength > 0 {
		return b.maxADLength
	}
	if b.params.Extended {
		return hci.MaxExtendedAdvertisingDataLength
	}
	return hci.MaxLegacyAdvertisingDataLength
}

func (b *Beacon) payload(ctx context.Context) (Payload, error) {
	fields, err := b.provider.Telemetry(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("read telemetry: %w", err)
	}
	p := Payload{
		Record:       mfgdata.Encode(fields),
		LocalName:    b.localName,
		ServiceUUIDs: b.serviceUUIDs,
	}
	if !b.params.Extended && b.params.Connectable {
		p.Flags = hci.FlagsDataTypeLEGeneralDiscoverableMode | hci.FlagsDataTypeBREDRNotSupported
	}
	if _, err := p.AdvertisingData(b.maxLength()); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Start encodes the current telemetry, enables the stack and starts the
// advertising set. The payload is checked before the stack is enabled.
func (b *Beacon) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}

	p, err := b.payload(ctx)
	if err != nil {
		return err
	}

	if err := b.advertiser.Enable(ctx); err != nil {
		return fmt.Errorf("enable bluetooth: %w", err)
	}

	h, err := b.advertiser.StartExtendedAdvertising(ctx, p, b.params)
	if err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	b.started = true
	b.handle = h
	b.record = p.Record

	zap.L().Info("Started Extended Advertising.",
		zap.Uint8("handle", uint8(h)),
		zap.Bool("extended", b.params.Extended),
		zap.Bool("connectable", b.params.Connectable),
		zap.Stringer("record", p.Record))
	return nil
}

// Refresh re-reads telemetry and replaces the advertising data when the
// encoded record changed.
func (b *Beacon) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return ErrNotStarted
	}

	p, err := b.payload(ctx)
	if err != nil {
		return err
	}
	if p.Record == b.record {
		return nil
	}
	if err := b.advertiser.UpdateData(ctx, b.handle, p); err != nil {
		return fmt.Errorf("update advertising data: %w", err)
	}
	b.record = p.Record
	zap.L().Debug("advertising data updated", zap.Stringer("record", p.Record))
	return nil
}

// Run blocks until ctx is done, refreshing the advertising data if a refresh
// interval is configured. Refresh failures are logged and retried on the
// next tick.
func (b *Beacon) Run(ctx context.Context) error {
	if b.refresh <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(b.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.Refresh(ctx); err != nil {
				if errors.Is(err, ErrNotStarted) {
					return err
				}
				zap.L().Warn("refresh failed", zap.Error(err))
			}
		}
	}
}

func (b *Beacon) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return ErrNotStarted
	}
	if err := b.advertiser.Stop(ctx, b.handle); err != nil {
		return err
	}
	b.started = false
	zap.L().Info("advertising stopped", zap.Uint8("handle", uint8(b.handle)))
	return nil
}

// Record returns the record currently advertised.
func (b *Beacon) Record() mfgdata.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record
}
