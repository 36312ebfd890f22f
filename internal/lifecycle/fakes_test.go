package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/uistate"
)

const testDelay = 10 * time.Millisecond

// callLog records collaborator calls across fakes in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeStore struct {
	mu       sync.Mutex
	cfg      api.HostConfig
	writeErr error
	writes   int
	log      *callLog
}

func newFakeStore(log *callLog) *fakeStore {
	return &fakeStore{cfg: api.HostConfig{Servers: map[string]api.InstalledServerEntry{}}, log: log}
}

func (s *fakeStore) ReadConfig(ctx context.Context) (api.HostConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := api.HostConfig{GlobalShortcut: s.cfg.GlobalShortcut, Servers: map[string]api.InstalledServerEntry{}}
	for k, v := range s.cfg.Servers {
		out.Servers[k] = v.Clone()
	}
	return out, nil
}

func (s *fakeStore) WriteEntry(ctx context.Context, name string, entry api.InstalledServerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("write %s", name)
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.cfg.Servers[name] = entry.Clone()
	return nil
}

func (s *fakeStore) DeleteEntry(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("delete %s", name)
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.cfg.Servers[name]; !ok {
		return api.NewServerNotFoundError(name)
	}
	s.writes++
	delete(s.cfg.Servers, name)
	return nil
}

func (s *fakeStore) WriteGlobalShortcut(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.cfg.GlobalShortcut = value
	return nil
}

func (s *fakeStore) put(name string, entry api.InstalledServerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Servers[name] = entry
}

func (s *fakeStore) entry(name string) (api.InstalledServerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cfg.Servers[name]
	return e, ok
}

type fakeCatalog struct {
	store     *fakeStore
	templates []api.ServerTemplate
	listErr   error
}

func (c *fakeCatalog) ListTemplates(ctx context.Context) ([]api.ServerTemplate, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.templates, nil
}

func (c *fakeCatalog) IsInstalled(ctx context.Context, name string) (bool, error) {
	_, ok := c.store.entry(name)
	return ok, nil
}

func (c *fakeCatalog) Get(ctx context.Context, name string) (api.ServerTemplate, error) {
	for _, t := range c.templates {
		if t.Name == name {
			return t, nil
		}
	}
	return api.ServerTemplate{}, api.NewTemplateNotFoundError(name)
}

// fakeSupervisor simulates a process table. Start and stop take effect
// unless the name is listed in ignoreStart/ignoreStop.
type fakeSupervisor struct {
	mu          sync.Mutex
	running     map[string]bool
	ignoreStart map[string]bool
	ignoreStop  map[string]bool
	startErr    error
	stopErr     error
	queryErr    map[string]error
	gates       map[string]chan struct{}
	log         *callLog
}

func newFakeSupervisor(log *callLog) *fakeSupervisor {
	return &fakeSupervisor{
		running:     map[string]bool{},
		ignoreStart: map[string]bool{},
		ignoreStop:  map[string]bool{},
		queryErr:    map[string]error{},
		gates:       map[string]chan struct{}{},
		log:         log,
	}
}

func (s *fakeSupervisor) StartProcess(ctx context.Context, name string) error {
	s.log.add("start %s", name)
	s.mu.Lock()
	gate := s.gates[name]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	if !s.ignoreStart[name] {
		s.running[name] = true
	}
	return nil
}

func (s *fakeSupervisor) StopProcess(ctx context.Context, name string) error {
	s.log.add("stop %s", name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopErr != nil {
		return s.stopErr
	}
	if !s.ignoreStop[name] {
		s.running[name] = false
	}
	return nil
}

func (s *fakeSupervisor) QueryRunning(ctx context.Context, name string) (bool, error) {
	s.log.add("query %s", name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queryErr[name]; err != nil {
		return false, err
	}
	return s.running[name], nil
}

func (s *fakeSupervisor) isRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[name]
}

func (s *fakeSupervisor) setRunning(name string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = running
}

type fakeRestarter struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (r *fakeRestarter) RestartHostApplication(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

var errBoom = errors.New("boom")

type fixture struct {
	log        *callLog
	store      *fakeStore
	catalog    *fakeCatalog
	supervisor *fakeSupervisor
	restarter  *fakeRestarter
	ui         *uistate.Store
	events     *events.Recorder
	ctrl       *Controller
}

func fsTemplate() api.ServerTemplate {
	return api.ServerTemplate{
		Name:             "fs",
		Command:          "mcp-fs",
		Args:             []string{"serve", "/default"},
		RequiresFilePath: true,
	}
}

func searchTemplate() api.ServerTemplate {
	return api.ServerTemplate{
		Name:    "search",
		Command: "npx",
		Args:    []string{"search-mcp"},
		Env:     map[string]string{"API_KEY": "", "REGION": "us"},
	}
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	log := &callLog{}
	store := newFakeStore(log)
	f := &fixture{
		log:        log,
		store:      store,
		catalog:    &fakeCatalog{store: store, templates: []api.ServerTemplate{fsTemplate(), searchTemplate()}},
		supervisor: newFakeSupervisor(log),
		restarter:  &fakeRestarter{},
		ui:         uistate.New(),
		events:     events.NewRecorder(0),
	}
	o := Options{VerificationDelay: testDelay, StopBeforeUninstall: true}
	for _, fn := range opts {
		fn(&o)
	}
	f.ctrl = New(Deps{
		Store:      f.store,
		Catalog:    f.catalog,
		Supervisor: f.supervisor,
		UI:         f.ui,
		Restarter:  f.restarter,
		Events:     f.events,
	}, o)
	return f
}

// installed seeds an entry directly in the store and the UI.
func (f *fixture) installed(name string, entry api.InstalledServerEntry) {
	f.store.put(name, entry)
	cfg, _ := f.store.ReadConfig(context.Background())
	f.ui.ReplaceConfig(cfg)
}

// assertInvariant checks that every name shown running has an entry.
func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	snap := f.ui.Snapshot()
	for name, running := range snap.Status {
		if !running {
			continue
		}
		if _, ok := f.store.entry(name); !ok {
			t.Fatalf("server %s is shown running but has no entry", name)
		}
	}
}
