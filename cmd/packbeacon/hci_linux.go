package main

import (
	"fmt"

	"github.com/muxable/packbeacon/internal/config"
	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/hci"
	"go.uber.org/zap"
)

// openHCI returns the advertiser, a channel closed when the controller goes
// away, and a func releasing the socket.
func openHCI(cfg config.BeaconConfig) (beacon.Advertiser, <-chan struct{}, func(), error) {
	sck, err := hci.NewSocket(cfg.Device)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open hci%d: %w", cfg.Device, err)
	}

	a := hci.NewAdapter(sck)
	h := beacon.NewHCIAdvertiser(a)
	h.MaxADLength = cfg.MaxADLength

	return h, a.Done(), func() {
		h.Close()
		if err := a.Close(); err != nil {
			zap.L().Warn("close hci socket", zap.Error(err))
		}
	}, nil
}
