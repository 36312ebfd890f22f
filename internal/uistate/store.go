package uistate

import (
	"sync"

	"mcpdeck/internal/api"
	"mcpdeck/internal/view"
)

// Store is the single in-memory UI state. All mutations go through its
// methods; each one notifies subscribers with a freshly projected view.
type Store struct {
	mu   sync.RWMutex
	snap view.Snapshot

	// rev increases on every status or phase change; touched holds the
	// revision of the last such change per name.
	rev     uint64
	touched map[string]uint64

	subMu     sync.Mutex
	subs      map[int]func(view.View)
	nextSubID int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		snap: view.Snapshot{
			Config:    api.HostConfig{Servers: map[string]api.InstalledServerEntry{}},
			Status:    api.RuntimeStatus{},
			Pending:   api.PendingSelection{},
			EnvDrafts: map[string]api.EnvDraft{},
			Phases:    map[string]api.Phase{},
			Errors:    map[string]string{},
		},
		touched: map[string]uint64{},
		subs:    map[int]func(view.View){},
	}
}

// Subscribe registers fn to receive the projected view after every change.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(view.View)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() view.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

// View projects the current state.
func (s *Store) View() view.View {
	return view.Project(s.Snapshot())
}

// ReplaceConfig installs a freshly read host configuration.
func (s *Store) ReplaceConfig(cfg api.HostConfig) {
	s.update(func(snap *view.Snapshot) {
		snap.Config = cloneConfig(cfg)
	})
}

// ReplaceTemplates installs the catalog. A nil slice clears it.
func (s *Store) ReplaceTemplates(templates []api.ServerTemplate) {
	s.update(func(snap *view.Snapshot) {
		snap.Templates = append([]api.ServerTemplate(nil), templates...)
	})
}

// ReplaceStatus replaces the whole status map. Names absent from status
// are no longer considered running.
func (s *Store) ReplaceStatus(status api.RuntimeStatus) {
	s.update(func(snap *view.Snapshot) {
		snap.Status = make(api.RuntimeStatus, len(status))
		for k, v := range status {
			snap.Status[k] = v
		}
	})
}

// Revision returns the current status revision. Pass it to MergeSync to
// detect status changes made while a sync was querying.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// MergeSync installs a freshly read configuration and observed status in one
// step. A name keeps its current status when it is busy or when its status
// or phase changed after revision since.
func (s *Store) MergeSync(cfg api.HostConfig, status api.RuntimeStatus, since uint64) {
	s.update(func(snap *view.Snapshot) {
		merged := make(api.RuntimeStatus, len(status))
		for k, v := range status {
			merged[k] = v
		}
		for name := range cfg.Servers {
			if snap.Phases[name].Busy() || s.touched[name] > since {
				merged[name] = snap.Status[name]
			}
		}
		snap.Config = cloneConfig(cfg)
		snap.Status = merged
	})
}

// SetOptimistic records an expected running state before it is verified and
// returns the previous value.
func (s *Store) SetOptimistic(name string, running bool) (previous bool) {
	s.update(func(snap *view.Snapshot) {
		previous = snap.Status[name]
		snap.Status[name] = running
		s.touch(name)
	})
	return previous
}

// RevertStatus puts back the running state observed before an optimistic
// update.
func (s *Store) RevertStatus(name string, running bool) {
	s.update(func(snap *view.Snapshot) {
		snap.Status[name] = running
		s.touch(name)
	})
}

// Running returns the current running state of name.
func (s *Store) Running(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status[name]
}

// SetPendingPath records a directory chosen for name. An empty path clears it.
func (s *Store) SetPendingPath(name, path string) {
	s.update(func(snap *view.Snapshot) {
		if path == "" {
			delete(snap.Pending, name)
			return
		}
		snap.Pending[name] = path
	})
}

// PendingPath returns the pending directory for name, or "".
func (s *Store) PendingPath(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Pending[name]
}

// SetEnvDraft records a draft value for one env key of name.
func (s *Store) SetEnvDraft(name, key, value string) {
	s.update(func(snap *view.Snapshot) {
		draft := snap.EnvDrafts[name]
		if draft == nil {
			draft = api.EnvDraft{}
			snap.EnvDrafts[name] = draft
		}
		draft[key] = value
	})
}

// EnvDraft returns a copy of the draft for name.
func (s *Store) EnvDraft(name string) api.EnvDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDraft(s.snap.EnvDrafts[name])
}

// ClearEnvDraft drops the draft for name.
func (s *Store) ClearEnvDraft(name string) {
	s.update(func(snap *view.Snapshot) {
		delete(snap.EnvDrafts, name)
	})
}

// SetPhase records the lifecycle phase of name.
func (s *Store) SetPhase(name string, phase api.Phase) {
	s.update(func(snap *view.Snapshot) {
		snap.Phases[name] = phase
		s.touch(name)
	})
}

// Phase returns the recorded phase of name, or "" when unknown.
func (s *Store) Phase(name string) api.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Phases[name]
}

// RecordError stores the last error for name. A nil error clears it.
func (s *Store) RecordError(name string, err error) {
	s.update(func(snap *view.Snapshot) {
		if err == nil {
			delete(snap.Errors, name)
			return
		}
		snap.Errors[name] = err.Error()
	})
}

// LastError returns the last recorded error message for name.
func (s *Store) LastError(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Errors[name]
}

// touch must be called with s.mu held.
func (s *Store) touch(name string) {
	s.rev++
	s.touched[name] = s.rev
}

func (s *Store) update(fn func(*view.Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := cloneSnapshot(s.snap)
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(view.View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	v := view.Project(snap)
	for _, fn := range subs {
		fn(v)
	}
}
