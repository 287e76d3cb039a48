// Package config provides YAML-based configuration loading and difficulty
// presets for the kiosk.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// KioskConfig contains all configuration for a kiosk installation.
type KioskConfig struct {
	Board   BoardConfig   `yaml:"board"`
	Timing  TimingConfig  `yaml:"timing"`
	Scoring ScoringConfig `yaml:"scoring"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// BoardConfig defines the shared board size, walls included.
type BoardConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TimingConfig defines turn delays and the host refresh rate.
type TimingConfig struct {
	Countdown  time.Duration `yaml:"countdown"`   // stationary block before play
	ClearDelay time.Duration `yaml:"clear_delay"` // full rows shown before removal
	TickRate   time.Duration `yaml:"tick_rate"`   // host frame interval
}

// ScoringConfig defines level progression.
type ScoringConfig struct {
	LinesPerLevel int `yaml:"lines_per_level"`
	MaxLevel      int `yaml:"max_level"`
}

// StorageConfig defines where the game database lives.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig defines the SSH kiosk server.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	HostKey      string        `yaml:"host_key"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	LeaseTimeout time.Duration `yaml:"lease_timeout"` // abandoned turns free the board after this
}

// Validate reports the first setting that cannot run a game.
func (c KioskConfig) Validate() error {
	switch {
	case c.Board.Width < 6:
		return fmt.Errorf("config: board width %d is below 6", c.Board.Width)
	case c.Board.Height < 6:
		return fmt.Errorf("config: board height %d is below 6", c.Board.Height)
	case c.Timing.Countdown < 0:
		return fmt.Errorf("config: countdown must not be negative")
	case c.Timing.ClearDelay < 0:
		return fmt.Errorf("config: clear_delay must not be negative")
	case c.Timing.TickRate <= 0:
		return fmt.Errorf("config: tick_rate must be positive")
	case c.Scoring.LinesPerLevel <= 0:
		return fmt.Errorf("config: lines_per_level must be positive")
	case c.Scoring.MaxLevel < 1 || c.Scoring.MaxLevel > stacker.LevelCap:
		return fmt.Errorf("config: max_level %d is outside 1..%d", c.Scoring.MaxLevel, stacker.LevelCap)
	case c.Storage.Path == "":
		return fmt.Errorf("config: storage path is empty")
	case c.Server.IdleTimeout <= 0:
		return fmt.Errorf("config: idle_timeout must be positive")
	case c.Server.LeaseTimeout <= 0:
		return fmt.Errorf("config: lease_timeout must be positive")
	}
	return nil
}

// TurnOptions converts the engine-facing settings into turn options.
func (c KioskConfig) TurnOptions() []stacker.Option {
	return []stacker.Option{
		stacker.WithBoardSize(c.Board.Width, c.Board.Height),
		stacker.WithTiming(stacker.Timing{
			Countdown:  c.Timing.Countdown,
			ClearDelay: c.Timing.ClearDelay,
		}),
		stacker.WithScoring(stacker.Scoring{
			LinesPerLevel: c.Scoring.LinesPerLevel,
			MaxLevel:      c.Scoring.MaxLevel,
		}),
	}
}
