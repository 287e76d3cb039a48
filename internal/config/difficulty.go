package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset validates a preset name. An empty name means "no preset".
func ParsePreset(name string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(name); p {
	case "", DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal, hard or fixed)", name)
	}
}

// IsFixedPreset returns true if the preset disables level progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}

// ApplyPreset modifies the config based on a difficulty preset.
// Easy gives a longer countdown and slower levelling; hard the reverse.
// Fixed keeps the game at level 0 forever.
func ApplyPreset(cfg *KioskConfig, preset DifficultyPreset) {
	switch preset {
	case DifficultyEasy:
		cfg.Timing.Countdown = 5 * time.Second
		cfg.Scoring.LinesPerLevel = 15
		cfg.Scoring.MaxLevel = stacker.LevelCap
	case DifficultyNormal:
		cfg.Timing.Countdown = 3 * time.Second
		cfg.Scoring.LinesPerLevel = 10
		cfg.Scoring.MaxLevel = stacker.LevelCap
	case DifficultyHard:
		cfg.Timing.Countdown = time.Second
		cfg.Scoring.LinesPerLevel = 5
		cfg.Scoring.MaxLevel = stacker.LevelCap
	case DifficultyFixed:
		cfg.Scoring.MaxLevel = stacker.LevelCap
		cfg.Scoring.LinesPerLevel = 1 << 30
	}
}
