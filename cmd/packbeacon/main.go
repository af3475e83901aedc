package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muxable/packbeacon/internal/config"
	"github.com/muxable/packbeacon/pkg/beacon"
	"github.com/muxable/packbeacon/pkg/bluez"
	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration")
	debug := flag.Bool("debug", false, "log every HCI packet")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	if err := run(*configPath); err != nil {
		logger.Error("packbeacon failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var adv beacon.Advertiser
	var lost <-chan struct{}
	switch cfg.Beacon.Backend {
	case config.BackendHCI:
		h, done, closer, err := openHCI(cfg.Beacon)
		if err != nil {
			return err
		}
		defer closer()
		adv, lost = h, done
		go func() {
			select {
			case <-lost:
				zap.L().Error("hci controller lost")
				stop()
			case <-ctx.Done():
			}
		}()
	case config.BackendBlueZ:
		adv = bluez.NewAdvertiser(nil)
	}

	opts := []beacon.Option{
		beacon.WithLocalName(cfg.Beacon.DeviceName),
		beacon.WithParams(cfg.Beacon.Params()),
		beacon.WithMaxADLength(cfg.Beacon.MaxADLength),
		beacon.WithRefreshInterval(cfg.Beacon.RefreshInterval),
	}
	if len(cfg.Beacon.ServiceUUIDs) > 0 {
		opts = append(opts, beacon.WithServiceUUIDs(cfg.Beacon.ServiceUUIDs...))
	}
	b := beacon.New(adv, telemetryProvider(configPath, cfg), opts...)

	if err := b.Start(ctx); err != nil {
		return err
	}

	runErr := b.Run(ctx)

	// ctx is already cancelled; stopping the set must still reach the stack.
	if err := b.Stop(context.Background()); err != nil {
		zap.L().Warn("stop advertising failed", zap.Error(err))
	}
	return exitError(runErr, lost)
}

// telemetryProvider re-reads the config file's telemetry section on every
// refresh. Without a file the defaults are static.
func telemetryProvider(path string, cfg *config.Config) mfgdata.Provider {
	if path == "" {
		return mfgdata.Static(cfg.Telemetry.Fields())
	}
	return config.TelemetryProvider(path)
}

// exitError reports a lost controller as a failure even though Run returned
// cleanly after the context was cancelled.
func exitError(runErr error, lost <-chan struct{}) error {
	if runErr != nil {
		return runErr
	}
	select {
	case <-lost:
		return hci.ErrClosed
	default:
		return nil
	}
}
