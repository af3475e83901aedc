//go:build !linux

package main

import (
	"errors"

	"github.com/muxable/packbeacon/internal/config"
	"github.com/muxable/packbeacon/pkg/beacon"
)

func openHCI(cfg config.BeaconConfig) (beacon.Advertiser, <-chan struct{}, func(), error) {
	return nil, nil, nil, errors.New("the hci backend requires linux, use backend: bluez")
}
