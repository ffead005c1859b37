package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchClinic loads clinic.yaml, hands it to onUpdate, and then polls the
// file's mtime, reloading on change. A file that fails to load is logged
// and skipped until it changes again.
func WatchClinic(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*ClinicConfig)) error {
	if path == "" {
		path = DefaultClinicPath
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	cfg, err := LoadClinicConfig(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadClinicConfig(path)
				if err != nil {
					logger.Error().Err(err).Str("path", path).Msg("Clinic config reload failed")
					continue
				}
				logger.Info().Str("path", path).Msg("Clinic config reloaded")
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
