package lifecycle

import (
	"context"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/resolve"
	"mcpdeck/pkg/logging"
)

// InstallRequest describes one install. Empty PendingPath and nil EnvDraft
// fall back to the selection and draft held in the UI store for the
// template's name.
type InstallRequest struct {
	Template    api.ServerTemplate
	PendingPath string
	EnvDraft    api.EnvDraft
}

// Install validates the request, rejects names that are already installed,
// persists the resolved entry and refreshes catalog and status. Validation
// and duplicate checks happen before any write.
func (c *Controller) Install(ctx context.Context, req InstallRequest) (err error) {
	name := req.Template.Name
	started := time.Now()
	defer func() { recordMetrics("install", started, err) }()

	release, err := c.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	pending := req.PendingPath
	if pending == "" {
		pending = c.ui.PendingPath(name)
	}
	draft := req.EnvDraft
	if draft == nil {
		draft = c.ui.EnvDraft(name)
	}

	opID := events.NewOperationID()
	fail := func(phase api.Phase, err error) error {
		c.record(events.ReasonServerInstallFailed, events.EventData{Name: name, OperationID: opID, Error: errString(err)})
		return c.settle(name, phase, err)
	}

	entry, err := resolve.BuildEntry(req.Template, pending, draft)
	if err != nil {
		logging.Debug("Lifecycle", "Install of %s rejected: %v", name, err)
		return fail(c.Phase(name), err)
	}

	installed, err := c.catalog.IsInstalled(ctx, name)
	if err != nil {
		return fail(c.Phase(name), &api.InstallError{Name: name, Err: err})
	}
	if installed {
		return fail(api.PhaseInstalled, &api.AlreadyInstalledError{Name: name})
	}

	c.ui.SetPhase(name, api.PhaseInstalling)
	logging.Info("Lifecycle", "Installing server %s (%s %v)", name, entry.Command, entry.Args)

	if err := c.store.WriteEntry(ctx, name, entry); err != nil {
		return fail(api.PhaseNotInstalled, &api.InstallError{Name: name, Err: err})
	}

	c.ui.SetPendingPath(name, "")
	c.ui.ClearEnvDraft(name)
	c.refreshAfter(ctx, "install")

	c.record(events.ReasonServerInstalled, events.EventData{Name: name, OperationID: opID})
	return c.settle(name, api.PhaseInstalled, nil)
}

// InstallTemplate installs the catalog template called name with the given
// directory and env values. Empty path and nil env fall back to the UI
// store as in Install.
func (c *Controller) InstallTemplate(ctx context.Context, name, path string, env api.EnvDraft) error {
	tpl, err := c.catalog.Get(ctx, name)
	if err != nil {
		return c.reject(name, err)
	}
	return c.Install(ctx, InstallRequest{Template: tpl, PendingPath: path, EnvDraft: env})
}

// Uninstall removes the entry for name. A running server is stopped first
// and verified stopped; if it keeps running the entry is kept and a
// StopFailedError is returned. With StopBeforeUninstall disabled a running
// server is refused instead.
func (c *Controller) Uninstall(ctx context.Context, name string) (err error) {
	started := time.Now()
	defer func() { recordMetrics("uninstall", started, err) }()

	release, err := c.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	opID := events.NewOperationID()
	fail := func(phase api.Phase, err error) error {
		c.record(events.ReasonServerUninstallFailed, events.EventData{Name: name, OperationID: opID, Error: errString(err)})
		return c.settle(name, phase, err)
	}

	if _, err := c.lookupEntry(ctx, name); err != nil {
		if api.IsNotFound(err) {
			return fail(api.PhaseNotInstalled, err)
		}
		return fail(c.Phase(name), err)
	}

	c.ui.SetPhase(name, api.PhaseUninstalling)

	running, qerr := c.supervisor.QueryRunning(ctx, name)
	if qerr != nil {
		logging.Warn("Lifecycle", "Could not query %s before uninstall, stopping it anyway: %v", name, qerr)
		running = true
	}
	if running {
		if !c.opts.StopBeforeUninstall {
			return fail(api.PhaseInstalled, &api.ValidationError{Name: name, Message: "server is running; stop it before uninstalling"})
		}
		if err := c.stop(ctx, name, opID); err != nil {
			return fail(api.PhaseInstalled, err)
		}
		c.ui.SetPhase(name, api.PhaseUninstalling)
	}

	logging.Info("Lifecycle", "Uninstalling server %s", name)
	if err := c.store.DeleteEntry(ctx, name); err != nil {
		return fail(api.PhaseInstalled, err)
	}

	c.ui.SetPendingPath(name, "")
	c.ui.ClearEnvDraft(name)
	c.refreshAfter(ctx, "uninstall")

	c.record(events.ReasonServerUninstalled, events.EventData{Name: name, OperationID: opID})
	return c.settle(name, api.PhaseNotInstalled, nil)
}
