package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/kiosk.yaml
var defaultKioskYAML []byte

// DefaultKioskConfig returns the built-in kiosk configuration.
func DefaultKioskConfig() KioskConfig {
	return KioskConfig{
		Board: BoardConfig{
			Width:  10,
			Height: 30,
		},
		Timing: TimingConfig{
			Countdown:  3 * time.Second,
			ClearDelay: 500 * time.Millisecond,
			TickRate:   16 * time.Millisecond,
		},
		Scoring: ScoringConfig{
			LinesPerLevel: 10,
			MaxLevel:      20,
		},
		Storage: StorageConfig{
			Path: "~/.kiosk/kiosk.db",
		},
		Server: ServerConfig{
			Address:      ":23234",
			IdleTimeout:  30 * time.Minute,
			LeaseTimeout: 10 * time.Minute,
		},
	}
}
