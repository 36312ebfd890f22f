package api

import "context"

// ConfigStore is the persisted host configuration as seen by the engine.
// Implementations must make every write all-or-nothing.
type ConfigStore interface {
	ReadConfig(ctx context.Context) (HostConfig, error)
	WriteEntry(ctx context.Context, name string, entry InstalledServerEntry) error
	DeleteEntry(ctx context.Context, name string) error
	WriteGlobalShortcut(ctx context.Context, value string) error
}

// TemplateCatalog lists installable templates.
type TemplateCatalog interface {
	ListTemplates(ctx context.Context) ([]ServerTemplate, error)
	IsInstalled(ctx context.Context, name string) (bool, error)
}

// Supervisor starts, stops and observes server processes. Start and stop are
// requests: a nil error does not mean the process changed state.
type Supervisor interface {
	StartProcess(ctx context.Context, name string) error
	StopProcess(ctx context.Context, name string) error
	QueryRunning(ctx context.Context, name string) (bool, error)
}

// DirectoryPicker asks the user for a directory. ok is false when the user
// cancelled; callers abort the dependent flow without reporting an error.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (path string, ok bool, err error)
}

// HostRestarter restarts the host application so it re-reads its
// configuration.
type HostRestarter interface {
	RestartHostApplication(ctx context.Context) error
}
