package lifecycle

import (
	"context"
	"errors"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/uistate"
	"mcpdeck/internal/view"
	"mcpdeck/pkg/logging"
)

// DefaultVerificationDelay is used when Options leaves it unset.
const DefaultVerificationDelay = 800 * time.Millisecond

// Catalog is the template catalog as used by the controller.
type Catalog interface {
	api.TemplateCatalog
	Get(ctx context.Context, name string) (api.ServerTemplate, error)
}

// StatusSyncer re-reads the host configuration and observed status into
// the UI store.
type StatusSyncer interface {
	Sync(ctx context.Context) error
}

// Options tunes the controller.
type Options struct {
	// VerificationDelay is the grace interval between a start/stop request
	// and the status query that confirms it.
	VerificationDelay time.Duration

	// StopBeforeUninstall stops a running server before removing its entry.
	// When false, uninstalling a running server is refused.
	StopBeforeUninstall bool
}

// Deps are the controller's collaborators. Restarter, Syncer and Events are
// optional.
type Deps struct {
	Store      api.ConfigStore
	Catalog    Catalog
	Supervisor api.Supervisor
	UI         *uistate.Store
	Restarter  api.HostRestarter
	Syncer     StatusSyncer
	Events     *events.Recorder
}

// Controller owns every mutation of installed entries and every start/stop.
// Operations on the same name are serialized; different names proceed in
// parallel.
type Controller struct {
	store      api.ConfigStore
	catalog    Catalog
	supervisor api.Supervisor
	ui         *uistate.Store
	restarter  api.HostRestarter
	syncer     StatusSyncer
	events     *events.Recorder

	opts  Options
	locks *nameLocks
}

// New creates a controller.
func New(deps Deps, opts Options) *Controller {
	if opts.VerificationDelay <= 0 {
		opts.VerificationDelay = DefaultVerificationDelay
	}
	ui := deps.UI
	if ui == nil {
		ui = uistate.New()
	}
	return &Controller{
		store:      deps.Store,
		catalog:    deps.Catalog,
		supervisor: deps.Supervisor,
		ui:         ui,
		restarter:  deps.Restarter,
		syncer:     deps.Syncer,
		events:     deps.Events,
		opts:       opts,
		locks:      newNameLocks(),
	}
}

// UI returns the store the controller writes to.
func (c *Controller) UI() *uistate.Store { return c.ui }

// View returns the current projection of the UI store.
func (c *Controller) View() view.View { return c.ui.View() }

// Phase returns the lifecycle phase of name.
func (c *Controller) Phase(name string) api.Phase {
	if p := c.ui.Phase(name); p != "" {
		return p
	}
	if c.ui.Snapshot().Config.Has(name) {
		return api.PhaseInstalled
	}
	return api.PhaseNotInstalled
}

// Refresh reloads the catalog and then syncs configuration and status. A
// failing catalog is treated as empty.
func (c *Controller) Refresh(ctx context.Context) error {
	templates, err := c.catalog.ListTemplates(ctx)
	if err != nil {
		logging.Warn("Lifecycle", "Template catalog unavailable, showing no templates: %v", err)
		templates = nil
	}
	c.ui.ReplaceTemplates(templates)

	if c.syncer != nil {
		return c.syncer.Sync(ctx)
	}
	cfg, err := c.store.ReadConfig(ctx)
	if err != nil {
		return err
	}
	c.ui.ReplaceConfig(cfg)
	return nil
}

// refreshAfter runs Refresh after a successful mutation. Its failure does
// not fail the mutation.
func (c *Controller) refreshAfter(ctx context.Context, op string) {
	if err := c.Refresh(ctx); err != nil {
		logging.Warn("Lifecycle", "Refresh after %s failed: %v", op, err)
	}
}

// reloadConfig refreshes only the configuration snapshot.
func (c *Controller) reloadConfig(ctx context.Context) {
	cfg, err := c.store.ReadConfig(ctx)
	if err != nil {
		logging.Warn("Lifecycle", "Failed to reload host configuration: %v", err)
		return
	}
	c.ui.ReplaceConfig(cfg)
}

// lookupEntry reads the current entry for name.
func (c *Controller) lookupEntry(ctx context.Context, name string) (api.InstalledServerEntry, error) {
	cfg, err := c.store.ReadConfig(ctx)
	if err != nil {
		return api.InstalledServerEntry{}, err
	}
	entry, ok := cfg.Servers[name]
	if !ok {
		return api.InstalledServerEntry{}, api.NewServerNotFoundError(name)
	}
	return entry.Clone(), nil
}

// settle records the outcome of an operation on name in the UI store.
func (c *Controller) settle(name string, phase api.Phase, err error) error {
	c.ui.SetPhase(name, phase)
	c.ui.RecordError(name, err)
	return err
}

// reject records a request refused before any lock was taken. The phase is
// left to whichever operation owns name.
func (c *Controller) reject(name string, err error) error {
	c.ui.RecordError(name, err)
	return err
}

func (c *Controller) record(reason events.EventReason, data events.EventData) {
	if c.events == nil {
		return
	}
	c.events.Record(reason, data)
}

// wait returns the operation's result, or ctx.Err() if the caller stops
// waiting first. The operation itself keeps running.
func wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errString renders err for an event message. Errors that already name the
// server contribute only their cause, since event templates name it too.
func errString(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Cause() string }
	if errors.As(err, &c) {
		return c.Cause()
	}
	return err.Error()
}
