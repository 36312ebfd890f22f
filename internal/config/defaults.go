package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultVerificationDelayMs covers typical npx/uvx process spin-up.
	DefaultVerificationDelayMs = 800

	DefaultRefreshConcurrency    = 4
	DefaultStatusIntervalSeconds = 30
	DefaultStopTimeoutMs         = 5000

	hostConfigFileName = "claude_desktop_config.json"
)

// GetDefaultConfig returns the configuration used when no config.yaml exists.
func GetDefaultConfig() MCPDeckConfig {
	stop := true
	return MCPDeckConfig{
		Lifecycle: LifecycleConfig{
			VerificationDelayMs:   DefaultVerificationDelayMs,
			RefreshConcurrency:    DefaultRefreshConcurrency,
			StopBeforeUninstall:   &stop,
			StatusIntervalSeconds: DefaultStatusIntervalSeconds,
			StopTimeoutMs:         DefaultStopTimeoutMs,
		},
		LogLevel: "info",
	}
}

// applyDefaults fills zero values left by a partial config.yaml.
func (c *MCPDeckConfig) applyDefaults(configDir string) {
	def := GetDefaultConfig()
	if c.Lifecycle.VerificationDelayMs <= 0 {
		c.Lifecycle.VerificationDelayMs = def.Lifecycle.VerificationDelayMs
	}
	if c.Lifecycle.RefreshConcurrency <= 0 {
		c.Lifecycle.RefreshConcurrency = def.Lifecycle.RefreshConcurrency
	}
	if c.Lifecycle.StopBeforeUninstall == nil {
		c.Lifecycle.StopBeforeUninstall = def.Lifecycle.StopBeforeUninstall
	}
	if c.Lifecycle.StopTimeoutMs <= 0 {
		c.Lifecycle.StopTimeoutMs = def.Lifecycle.StopTimeoutMs
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.StateDir == "" && configDir != "" {
		c.StateDir = filepath.Join(configDir, "state")
	}
}

// DefaultHostConfigPath returns the host application's config file location
// for the current OS.
func DefaultHostConfigPath() (string, error) {
	return hostConfigPathFor(runtime.GOOS, os.Getenv)
}

func hostConfigPathFor(goos string, getenv func(string) string) (string, error) {
	switch goos {
	case "darwin":
		home := getenv("HOME")
		if home == "" {
			return "", errNoHome
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", hostConfigFileName), nil
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			return "", errNoAppData
		}
		return filepath.Join(appData, "Claude", hostConfigFileName), nil
	default:
		home := getenv("HOME")
		if home == "" {
			return "", errNoHome
		}
		return filepath.Join(home, ".config", "Claude", hostConfigFileName), nil
	}
}
