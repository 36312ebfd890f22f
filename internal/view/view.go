package view

import (
	"errors"
	"sort"

	"mcpdeck/internal/api"
	"mcpdeck/internal/resolve"
)

// Snapshot is everything the projection needs, captured at one instant.
type Snapshot struct {
	Config    api.HostConfig
	Templates []api.ServerTemplate
	Status    api.RuntimeStatus
	Pending   api.PendingSelection
	EnvDrafts map[string]api.EnvDraft
	Phases    map[string]api.Phase
	Errors    map[string]string
}

// ServerRow describes one configured entry.
type ServerRow struct {
	Name        string            `json:"name"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env,omitempty"`
	Running     bool              `json:"running"`
	Phase       api.Phase         `json:"phase"`
	LastError   string            `json:"lastError,omitempty"`
	FromCatalog bool              `json:"fromCatalog"`

	// Path is the directory argument of entries whose template takes one.
	Path        string `json:"path,omitempty"`
	PendingPath string `json:"pendingPath,omitempty"`

	CanStart     bool `json:"canStart"`
	CanStop      bool `json:"canStop"`
	CanUninstall bool `json:"canUninstall"`
}

// TemplateRow describes one catalog template and its install state.
type TemplateRow struct {
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Command          string    `json:"command"`
	Args             []string  `json:"args"`
	EnvKeys          []string  `json:"envKeys,omitempty"`
	RequiresFilePath bool      `json:"requiresFilePath"`
	RepoURL          string    `json:"repoUrl,omitempty"`
	Installed        bool      `json:"installed"`
	Running          bool      `json:"running"`
	Phase            api.Phase `json:"phase"`
	PendingPath      string    `json:"pendingPath,omitempty"`
	MissingEnv       []string  `json:"missingEnv,omitempty"`
	MissingPath      bool      `json:"missingPath,omitempty"`
	LastError        string    `json:"lastError,omitempty"`

	// CanInstall mirrors install validation for display only.
	CanInstall bool `json:"canInstall"`
}

// View is the rendered UI state.
type View struct {
	GlobalShortcut string        `json:"globalShortcut"`
	Configured     []ServerRow   `json:"configured"`
	Available      []TemplateRow `json:"available"`
}

// Project joins configuration, catalog, status and pending input by server
// name. It does not validate or persist anything.
func Project(s Snapshot) View {
	byName := make(map[string]api.ServerTemplate, len(s.Templates))
	for _, t := range s.Templates {
		byName[t.Name] = t
	}

	v := View{
		GlobalShortcut: s.Config.GlobalShortcut,
		Configured:     make([]ServerRow, 0, len(s.Config.Servers)),
		Available:      make([]TemplateRow, 0, len(s.Templates)),
	}

	for _, name := range s.Config.Names() {
		entry := s.Config.Servers[name]
		phase := phaseOf(s, name, api.PhaseInstalled)
		running := s.Status[name]
		busy := phase.Busy()

		row := ServerRow{
			Name:         name,
			Command:      entry.Command,
			Args:         append([]string{}, entry.Args...),
			Env:          copyMap(entry.Env),
			Running:      running,
			Phase:        phase,
			LastError:    s.Errors[name],
			PendingPath:  s.Pending[name],
			CanStart:     !running && !busy,
			CanStop:      running && !busy,
			CanUninstall: !busy,
		}
		if tpl, ok := byName[name]; ok {
			row.FromCatalog = true
			if tpl.RequiresFilePath && len(entry.Args) > 0 {
				row.Path = entry.Args[len(entry.Args)-1]
			}
		}
		v.Configured = append(v.Configured, row)
	}

	for _, tpl := range s.Templates {
		installed := s.Config.Has(tpl.Name)
		running := s.Status[tpl.Name]
		defaultPhase := api.PhaseNotInstalled
		if installed {
			defaultPhase = api.PhaseInstalled
		}
		phase := phaseOf(s, tpl.Name, defaultPhase)
		pending := s.Pending[tpl.Name]

		row := TemplateRow{
			Name:             tpl.Name,
			Description:      tpl.Description,
			Command:          tpl.Command,
			Args:             resolve.ResolveArgs(tpl, pending),
			EnvKeys:          tpl.EnvKeys(),
			RequiresFilePath: tpl.RequiresFilePath,
			RepoURL:          tpl.RepoURL,
			Installed:        installed,
			Running:          running,
			Phase:            phase,
			PendingPath:      pending,
			LastError:        s.Errors[tpl.Name],
		}

		valid := true
		if err := resolve.ValidateInstall(tpl, pending, s.EnvDrafts[tpl.Name]); err != nil {
			valid = false
			var verr *api.ValidationError
			if errors.As(err, &verr) {
				row.MissingEnv = verr.MissingEnv
				row.MissingPath = verr.MissingPath
			}
		}
		row.CanInstall = valid && !installed && !running && !phase.Busy()

		v.Available = append(v.Available, row)
	}

	sort.SliceStable(v.Available, func(i, j int) bool {
		return v.Available[i].Name < v.Available[j].Name
	})
	return v
}

func phaseOf(s Snapshot, name string, fallback api.Phase) api.Phase {
	if p, ok := s.Phases[name]; ok && p != "" {
		return p
	}
	return fallback
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
