package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mcpdeck/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/mcpdeck"
	configFileName = "config.yaml"
)

var (
	errNoHome    = errors.New("could not find home directory")
	errNoAppData = errors.New("could not find APPDATA directory")
)

// GetDefaultConfigDir returns ~/.config/mcpdeck.
func GetDefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configDir, falling back to defaults when
// the file does not exist. The returned config has every default applied and
// a resolved HostConfigPath.
func LoadConfig(configDir string) (MCPDeckConfig, error) {
	cfg := GetDefaultConfig()
	configFilePath := filepath.Join(configDir, configFileName)

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return MCPDeckConfig{}, NewConfigurationError(configFilePath, "io", err.Error())
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return MCPDeckConfig{}, NewConfigurationError(configFilePath, "parse", err.Error())
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	cfg.applyDefaults(configDir)

	if cfg.HostConfigPath == "" {
		p, err := DefaultHostConfigPath()
		if err != nil {
			return MCPDeckConfig{}, NewConfigurationError(configFilePath, "environment", err.Error())
		}
		cfg.HostConfigPath = p
	}

	if errs := Validate(cfg); errs.HasErrors() {
		return MCPDeckConfig{}, NewConfigurationErrorWithDetails(configFilePath, "validation", "invalid configuration", errs.Error())
	}
	return cfg, nil
}
