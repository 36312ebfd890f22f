package lifecycle

import (
	"context"
	"strings"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/resolve"
	"mcpdeck/pkg/logging"
)

// EntryUpdate is a partial update of an installed entry. Nil fields are
// left unchanged. ClearEnv removes the env block entirely and wins over Env.
type EntryUpdate struct {
	Args     *[]string
	Env      *map[string]string
	ClearEnv bool
}

// UpdateEntry applies a partial update to the entry for name.
func (c *Controller) UpdateEntry(ctx context.Context, name string, upd EntryUpdate) error {
	return c.updateEntry(ctx, name, "entry", func(entry *api.InstalledServerEntry) error {
		if upd.Args != nil {
			entry.Args = append([]string{}, (*upd.Args)...)
		}
		switch {
		case upd.ClearEnv:
			entry.Env = nil
		case upd.Env != nil:
			env := make(map[string]string, len(*upd.Env))
			for k, v := range *upd.Env {
				env[k] = v
			}
			entry.Env = env
		}
		return nil
	})
}

// UpdatePath replaces the directory argument of an installed entry. The
// entry's catalog template must take a directory. The running process is
// not restarted.
func (c *Controller) UpdatePath(ctx context.Context, name, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return c.reject(name, &api.ValidationError{Name: name, MissingPath: true})
	}

	tpl, err := c.catalog.Get(ctx, name)
	if err != nil && !api.IsNotFound(err) {
		return c.reject(name, err)
	}
	if err != nil || !tpl.RequiresFilePath {
		return c.reject(name, &api.ValidationError{Name: name, Message: "server does not take a directory path"})
	}

	err = c.updateEntry(ctx, name, "path", func(entry *api.InstalledServerEntry) error {
		entry.Args = resolve.ReplacePath(entry.Args, path)
		return nil
	})
	if err == nil {
		c.ui.SetPendingPath(name, "")
	}
	return err
}

// CommitEnv merges the UI store's env draft for name into the installed
// entry and clears the draft. Empty draft values do not overwrite.
func (c *Controller) CommitEnv(ctx context.Context, name string) error {
	draft := c.ui.EnvDraft(name)
	if len(draft) == 0 {
		return c.reject(name, &api.ValidationError{Name: name, Message: "no environment changes to commit"})
	}

	err := c.updateEntry(ctx, name, "env", func(entry *api.InstalledServerEntry) error {
		entry.Env = resolve.MergeEnv(entry.Env, draft)
		return nil
	})
	if err == nil {
		c.ui.ClearEnvDraft(name)
	}
	return err
}

// SetEnv stages values as the env draft of name and commits it.
func (c *Controller) SetEnv(ctx context.Context, name string, values map[string]string) error {
	for k, v := range values {
		c.ui.SetEnvDraft(name, k, v)
	}
	return c.CommitEnv(ctx, name)
}

func (c *Controller) updateEntry(ctx context.Context, name, op string, apply func(*api.InstalledServerEntry) error) (err error) {
	started := time.Now()
	defer func() { recordMetrics("update_"+op, started, err) }()

	release, err := c.locks.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	opID := events.NewOperationID()
	fail := func(phase api.Phase, err error) error {
		c.record(events.ReasonServerUpdateFailed, events.EventData{Name: name, Operation: op, OperationID: opID, Error: errString(err)})
		return c.settle(name, phase, err)
	}

	entry, err := c.lookupEntry(ctx, name)
	if err != nil {
		if api.IsNotFound(err) {
			return fail(api.PhaseNotInstalled, err)
		}
		return fail(c.Phase(name), err)
	}

	c.ui.SetPhase(name, api.PhaseUpdating)
	if err := apply(&entry); err != nil {
		return fail(api.PhaseInstalled, err)
	}
	if err := c.store.WriteEntry(ctx, name, entry); err != nil {
		return fail(api.PhaseInstalled, err)
	}

	logging.Info("Lifecycle", "Updated %s of server %s", op, name)
	c.reloadConfig(ctx)
	c.record(events.ReasonServerUpdated, events.EventData{Name: name, Operation: op, OperationID: opID})
	return c.settle(name, api.PhaseInstalled, nil)
}

// SetGlobalShortcut writes the host's global shortcut.
func (c *Controller) SetGlobalShortcut(ctx context.Context, value string) (err error) {
	started := time.Now()
	defer func() { recordMetrics("set_shortcut", started, err) }()

	if err := c.store.WriteGlobalShortcut(ctx, value); err != nil {
		return err
	}
	logging.Info("Lifecycle", "Global shortcut set to %q", value)
	c.reloadConfig(ctx)
	c.record(events.ReasonShortcutUpdated, events.EventData{})
	return nil
}

// RestartHost asks the host application to restart so it re-reads its
// configuration. It does not wait; the returned channel carries the result
// for callers that care. Failures are logged.
func (c *Controller) RestartHost(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if c.restarter == nil {
		done <- nil
		close(done)
		return done
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		err := c.restarter.RestartHostApplication(ctx)
		if err != nil {
			logging.Error("Lifecycle", err, "Host application restart failed")
			c.record(events.ReasonHostRestartFailed, events.EventData{Error: errString(err)})
		} else {
			logging.Info("Lifecycle", "Host application restarted")
			c.record(events.ReasonHostRestarted, events.EventData{})
		}
		done <- err
	}()
	return done
}
