package api

import "sort"

// ServerTemplate is an immutable catalog blueprint for an installable MCP
// server entry.
type ServerTemplate struct {
	ID               string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Command          string            `json:"command" yaml:"command"`
	Args             []string          `json:"args" yaml:"args"`
	Env              map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	RequiresFilePath bool              `json:"requiresFilePath" yaml:"requiresFilePath"`
	RepoURL          string            `json:"repoUrl,omitempty" yaml:"repoUrl,omitempty"`
}

// EnvKeys returns the template's declared environment keys in sorted order.
func (t ServerTemplate) EnvKeys() []string {
	return sortedKeys(t.Env)
}

// InstalledServerEntry is one record of the host configuration's mcpServers
// map. The map key (the server name) is not part of the record.
type InstalledServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// Clone returns a deep copy so callers can mutate args/env freely.
func (e InstalledServerEntry) Clone() InstalledServerEntry {
	out := InstalledServerEntry{Command: e.Command}
	if e.Args != nil {
		out.Args = append([]string(nil), e.Args...)
	}
	if e.Env != nil {
		out.Env = make(map[string]string, len(e.Env))
		for k, v := range e.Env {
			out.Env[k] = v
		}
	}
	return out
}

// HostConfig is the engine's view of the host application's configuration
// document: entries keyed by unique name plus the global shortcut.
type HostConfig struct {
	Servers        map[string]InstalledServerEntry `json:"mcpServers"`
	GlobalShortcut string                          `json:"globalShortcut"`
}

// Names returns the configured server names in sorted order.
func (c HostConfig) Names() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether an entry named name exists.
func (c HostConfig) Has(name string) bool {
	_, ok := c.Servers[name]
	return ok
}

// RuntimeStatus maps server name to observed running state.
type RuntimeStatus map[string]bool

// PendingSelection maps server name to a directory chosen by the user but
// not yet persisted.
type PendingSelection map[string]string

// EnvDraft maps an environment key to a not-yet-committed value for a
// single server.
type EnvDraft map[string]string

// Phase is the per-name operation state of the lifecycle controller.
type Phase string

const (
	PhaseNotInstalled Phase = "NotInstalled"
	PhaseInstalling   Phase = "Installing"
	PhaseInstalled    Phase = "Installed"
	PhaseStarting     Phase = "Starting"
	PhaseStopping     Phase = "Stopping"
	PhaseUpdating     Phase = "Updating"
	PhaseUninstalling Phase = "Uninstalling"
)

// Busy reports whether an operation currently holds the name.
func (p Phase) Busy() bool {
	switch p {
	case PhaseInstalling, PhaseStarting, PhaseStopping, PhaseUpdating, PhaseUninstalling:
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
