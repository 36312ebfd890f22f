package uistate

import (
	"mcpdeck/internal/api"
	"mcpdeck/internal/view"
)

func cloneSnapshot(s view.Snapshot) view.Snapshot {
	out := view.Snapshot{
		Config:    cloneConfig(s.Config),
		Templates: append([]api.ServerTemplate(nil), s.Templates...),
		Status:    make(api.RuntimeStatus, len(s.Status)),
		Pending:   make(api.PendingSelection, len(s.Pending)),
		EnvDrafts: make(map[string]api.EnvDraft, len(s.EnvDrafts)),
		Phases:    make(map[string]api.Phase, len(s.Phases)),
		Errors:    make(map[string]string, len(s.Errors)),
	}
	for k, v := range s.Status {
		out.Status[k] = v
	}
	for k, v := range s.Pending {
		out.Pending[k] = v
	}
	for k, v := range s.EnvDrafts {
		out.EnvDrafts[k] = cloneDraft(v)
	}
	for k, v := range s.Phases {
		out.Phases[k] = v
	}
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}

func cloneConfig(c api.HostConfig) api.HostConfig {
	out := api.HostConfig{
		GlobalShortcut: c.GlobalShortcut,
		Servers:        make(map[string]api.InstalledServerEntry, len(c.Servers)),
	}
	for name, entry := range c.Servers {
		out.Servers[name] = entry.Clone()
	}
	return out
}

func cloneDraft(d api.EnvDraft) api.EnvDraft {
	if d == nil {
		return nil
	}
	out := make(api.EnvDraft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
