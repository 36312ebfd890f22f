package config

import "time"

// MCPDeckConfig is the top-level configuration structure for mcpdeck,
// loaded from config.yaml in the configuration directory.
type MCPDeckConfig struct {
	// HostConfigPath is the host application's JSON configuration file.
	// Empty means the per-OS default.
	HostConfigPath string `yaml:"hostConfigPath,omitempty"`

	// CatalogPath points at a YAML template catalog replacing the built-in one.
	CatalogPath string `yaml:"catalogPath,omitempty"`

	// StateDir holds PID files and server logs of the local supervisor.
	StateDir string `yaml:"stateDir,omitempty"`

	Lifecycle LifecycleConfig `yaml:"lifecycle"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// LifecycleConfig tunes the start/stop protocol and the status reconciler.
type LifecycleConfig struct {
	// VerificationDelayMs is the grace interval between a start/stop request
	// and the status query that verifies it.
	VerificationDelayMs int `yaml:"verificationDelayMs,omitempty"`

	// RefreshConcurrency bounds concurrent status queries in a batch refresh.
	RefreshConcurrency int `yaml:"refreshConcurrency,omitempty"`

	// StopBeforeUninstall stops a running server before removing its entry.
	StopBeforeUninstall *bool `yaml:"stopBeforeUninstall,omitempty"`

	// StatusIntervalSeconds is the periodic status refresh in serve mode.
	// Zero disables it.
	StatusIntervalSeconds int `yaml:"statusIntervalSeconds,omitempty"`

	// StopTimeoutMs is how long the local supervisor waits after SIGTERM
	// before sending SIGKILL.
	StopTimeoutMs int `yaml:"stopTimeoutMs,omitempty"`
}

// VerificationDelay returns the grace interval as a duration.
func (l LifecycleConfig) VerificationDelay() time.Duration {
	return time.Duration(l.VerificationDelayMs) * time.Millisecond
}

// StatusInterval returns the periodic refresh interval as a duration.
func (l LifecycleConfig) StatusInterval() time.Duration {
	return time.Duration(l.StatusIntervalSeconds) * time.Second
}

// StopTimeout returns the SIGTERM grace as a duration.
func (l LifecycleConfig) StopTimeout() time.Duration {
	return time.Duration(l.StopTimeoutMs) * time.Millisecond
}

// ShouldStopBeforeUninstall resolves the optional flag, defaulting to true.
func (l LifecycleConfig) ShouldStopBeforeUninstall() bool {
	if l.StopBeforeUninstall == nil {
		return true
	}
	return *l.StopBeforeUninstall
}
