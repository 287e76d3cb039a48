package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadKiosk loads the kiosk configuration.
// Search order: customPath -> ~/.kiosk/configs/kiosk.yaml -> ./configs/kiosk.yaml -> embedded default
//
// Files are layered over the defaults, so a file may set only the keys it
// cares about. The result is validated.
func LoadKiosk(customPath string) (KioskConfig, error) {
	cfg, err := loadKiosk(customPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadKiosk(customPath string) (KioskConfig, error) {
	cfg := DefaultKioskConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("kiosk.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultKioskConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/kiosk.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultKioskConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultKioskYAML, &cfg); err != nil {
		return DefaultKioskConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kiosk", "configs", filename)
}
