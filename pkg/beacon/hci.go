package beacon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/muxable/packbeacon/pkg/hci"
	"go.uber.org/zap"
)

// ErrExtendedUnsupported is returned when extended advertising is requested
// from a controller that only implements legacy advertising.
var ErrExtendedUnsupported = errors.New("beacon: controller does not support extended advertising")

// HCIAdvertiser drives a controller directly over an HCI user channel.
type HCIAdvertiser struct {
	adapter *hci.Adapter

	// MaxADLength, when set, caps the advertising data below the controller
	// limit.
	MaxADLength int

	mu         sync.Mutex
	extended   bool
	maxDataLen int
	legacy     map[Handle]bool
	stopEvents func()
}

func NewHCIAdvertiser(adapter *hci.Adapter) *HCIAdvertiser {
	return &HCIAdvertiser{
		adapter:    adapter,
		maxDataLen: hci.MaxLegacyAdvertisingDataLength,
		legacy:     make(map[Handle]bool),
	}
}

func (h *HCIAdvertiser) Enable(ctx context.Context) error {
	a := h.adapter

	if err := a.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := a.SetEventMask(
		hci.EventMaskDisconnectionCompleteEvent |
			hci.EventMaskHardwareErrorEvent |
			hci.EventMaskLEMetaEvent); err != nil {
		return fmt.Errorf("set event mask: %w", err)
	}

	if err := a.LESetEventMask(
		hci.LEEventMaskConnectionCompleteEvent |
			hci.LEEventMaskEnhancedConnectionCompleteEvent |
			hci.LEEventMaskAdvertisingSetTerminatedEvent); err != nil {
		return fmt.Errorf("le set event mask: %w", err)
	}

	addr, err := a.ReadBDAddr()
	if err != nil {
		return fmt.Errorf("read bdaddr: %w", err)
	}
	zap.L().Info("controller ready", zap.Stringer("bdaddr", addr))

	if err := ctx.Err(); err != nil {
		return err
	}

	sets, err := a.LEReadNumberOfSupportedAdvertisingSets()
	switch {
	case hci.IsStatus(err, hci.StatusUnknownCommand):
		zap.L().Warn("controller has no extended advertising, legacy only")
	case err != nil:
		return fmt.Errorf("read number of advertising sets: %w", err)
	default:
		n, err := a.LEReadMaximumAdvertisingDataLength()
		if err != nil {
			return fmt.Errorf("read maximum advertising data length: %w", err)
		}
		if err := a.LEClearAdvertisingSets(); err != nil {
			return fmt.Errorf("clear advertising sets: %w", err)
		}
		h.mu.Lock()
		h.extended = true
		h.maxDataLen = int(n)
		h.mu.Unlock()
		zap.L().Info("extended advertising available", zap.Uint8("sets", sets), zap.Uint16("max_data_len", n))
	}

	h.mu.Lock()
	if h.stopEvents == nil {
		h.stopEvents = a.Handle(func(p hci.Packet) {
			switch p := p.(type) {
			case *hci.LEAdvertisingSetTerminatedEventPacket:
				zap.L().Info("advertising set terminated",
					zap.Uint8("handle", uint8(p.AdvertisingHandle)),
					zap.Stringer("status", p.Status),
					zap.Uint16("connection", p.ConnectionHandle))
			case *hci.EventPacket:
				if p.EventCode == hci.EventCodeHardwareError {
					zap.L().Error("controller hardware error", zap.Binary("code", p.Parameters))
				}
			}
		})
	}
	h.mu.Unlock()
	return nil
}

func (h *HCIAdvertiser) limit(extended bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := hci.MaxLegacyAdvertisingDataLength
	if extended {
		n = h.maxDataLen
	}
	if h.MaxADLength > 0 && h.MaxADLength < n {
		n = h.MaxADLength
	}
	return n
}

func (h *HCIAdvertiser) StartExtendedAdvertising(ctx context.Context, payload Payload, params Params) (Handle, error) {
	if !params.Extended {
		return h.startLegacy(ctx, payload, params)
	}

	h.mu.Lock()
	extended := h.extended
	h.mu.Unlock()
	if !extended {
		return 0, ErrExtendedUnsupported
	}
	if _, err := payload.AdvertisingData(h.limit(true)); err != nil {
		return 0, err
	}

	a := h.adapter
	handle := hci.AdvertisingHandle(params.Handle)

	var props hci.AdvertisingEventProperties
	if params.Connectable {
		props |= hci.AdvertisingEventPropertyConnectable
	}
	txPower, err := a.LESetExtendedAdvertisingParameters(&hci.SetExtendedAdvertisingParametersRequest{
		AdvertisingHandle:             handle,
		AdvertisingEventProperties:    props,
		PrimaryAdvertisingIntervalMin: params.IntervalMin,
		PrimaryAdvertisingIntervalMax: params.IntervalMax,
		OwnAddressType:                params.OwnAddressType,
		AdvertisingTxPower:            params.TxPower,
		AdvertisingSID:                params.SID,
	})
	if err != nil {
		return 0, fmt.Errorf("create advertising set: %w", err)
	}
	zap.L().Debug("advertising set created", zap.Uint8("handle", uint8(handle)), zap.Int8("tx_power", txPower))

	if err := ctx.Err(); err != nil {
		h.discard(handle)
		return 0, err
	}

	if err := a.LESetExtendedAdvertisingData(handle, payload.DataTypes()...); err != nil {
		h.discard(handle)
		return 0, fmt.Errorf("set advertising data: %w", err)
	}

	if err := a.LESetExtendedAdvertisingEnable(true, hci.AdvertisingSet{AdvertisingHandle: handle}); err != nil {
		h.discard(handle)
		return 0, fmt.Errorf("start advertising: %w", err)
	}

	h.mu.Lock()
	delete(h.legacy, params.Handle)
	h.mu.Unlock()
	return params.Handle, nil
}

// discard removes a set whose start failed part way.
func (h *HCIAdvertiser) discard(handle hci.AdvertisingHandle) {
	if err := h.adapter.LERemoveAdvertisingSet(handle); err != nil {
		zap.L().Warn("remove advertising set", zap.Uint8("handle", uint8(handle)), zap.Error(err))
	}
}

func (h *HCIAdvertiser) startLegacy(ctx context.Context, payload Payload, params Params) (Handle, error) {
	if _, err := payload.AdvertisingData(h.limit(false)); err != nil {
		return 0, err
	}
	if params.IntervalMin > hci.MaxLegacyAdvertisingInterval || params.IntervalMax > hci.MaxLegacyAdvertisingInterval {
		return 0, errors.New("beacon: legacy advertising interval out of range")
	}

	a := h.adapter
	typ := hci.AdvertisingTypeNonConnectableUndirectedAdvertising
	if params.Connectable {
		typ = hci.AdvertisingTypeConnectableAndScannableUndirectedAdvertising
	}
	if err := a.LESetAdvertisingParameters(hci.HCILESetAdvertisingParametersCommandPacket{
		AdvertisingIntervalMin: uint16(params.IntervalMin),
		AdvertisingIntervalMax: uint16(params.IntervalMax),
		AdvertisingType:        typ,
		OwnAddressType:         params.OwnAddressType,
	}); err != nil {
		return 0, fmt.Errorf("set advertising parameters: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := a.SetAdvertisingData(payload.DataTypes()...); err != nil {
		return 0, fmt.Errorf("set advertising data: %w", err)
	}
	if err := a.LESetAdvertisingEnable(true); err != nil {
		return 0, fmt.Errorf("start advertising: %w", err)
	}

	h.mu.Lock()
	h.legacy[params.Handle] = true
	h.mu.Unlock()
	return params.Handle, nil
}

func (h *HCIAdvertiser) isLegacy(handle Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.legacy[handle]
}

// UpdateData replaces the advertising data. Data that fits one HCI command
// is replaced while the set runs; longer data is fragmented, which the
// controller only accepts while the set is disabled.
func (h *HCIAdvertiser) UpdateData(ctx context.Context, handle Handle, payload Payload) error {
	if h.isLegacy(handle) {
		if _, err := payload.AdvertisingData(h.limit(false)); err != nil {
			return err
		}
		return h.adapter.SetAdvertisingData(payload.DataTypes()...)
	}
	data, err := payload.AdvertisingData(h.limit(true))
	if err != nil {
		return err
	}

	a := h.adapter
	set := hci.AdvertisingSet{AdvertisingHandle: hci.AdvertisingHandle(handle)}
	if len(data) <= hci.MaxExtendedAdvertisingDataFragment {
		return a.LESetExtendedAdvertisingData(set.AdvertisingHandle, payload.DataTypes()...)
	}

	if err := a.LESetExtendedAdvertisingEnable(false, set); err != nil {
		return fmt.Errorf("pause advertising: %w", err)
	}
	dataErr := a.LESetExtendedAdvertisingData(set.AdvertisingHandle, payload.DataTypes()...)
	if dataErr != nil {
		dataErr = fmt.Errorf("set advertising data: %w", dataErr)
	}
	// resume even when the data was rejected so the previous data stays on air
	if err := a.LESetExtendedAdvertisingEnable(true, set); err != nil {
		return errors.Join(dataErr, fmt.Errorf("resume advertising: %w", err))
	}
	return dataErr
}

func (h *HCIAdvertiser) Stop(ctx context.Context, handle Handle) error {
	if h.isLegacy(handle) {
		h.mu.Lock()
		delete(h.legacy, handle)
		h.mu.Unlock()
		return h.adapter.LESetAdvertisingEnable(false)
	}
	if err := h.adapter.LESetExtendedAdvertisingEnable(false, hci.AdvertisingSet{AdvertisingHandle: hci.AdvertisingHandle(handle)}); err != nil {
		return fmt.Errorf("stop advertising: %w", err)
	}
	if err := h.adapter.LERemoveAdvertisingSet(hci.AdvertisingHandle(handle)); err != nil {
		return fmt.Errorf("remove advertising set: %w", err)
	}
	return nil
}

// Close stops watching controller events. The adapter is left open.
func (h *HCIAdvertiser) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopEvents != nil {
		h.stopEvents()
		h.stopEvents = nil
	}
	return nil
}
