package lifecycle

import (
	"context"
	"testing"
	"time"

	"mcpdeck/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateEntry_PartialUpdate(t *testing.T) {
	f := newFixture(t)
	f.installed("search", api.InstalledServerEntry{
		Command: "npx",
		Args:    []string{"search-mcp"},
		Env:     map[string]string{"API_KEY": "old"},
	})
	ctx := context.Background()

	args := []string{"search-mcp", "--verbose"}
	require.NoError(t, f.ctrl.UpdateEntry(ctx, "search", EntryUpdate{Args: &args}))

	entry, _ := f.store.entry("search")
	assert.Equal(t, args, entry.Args)
	assert.Equal(t, map[string]string{"API_KEY": "old"}, entry.Env, "env preserved")

	env := map[string]string{"API_KEY": "new"}
	require.NoError(t, f.ctrl.UpdateEntry(ctx, "search", EntryUpdate{Env: &env}))
	entry, _ = f.store.entry("search")
	assert.Equal(t, args, entry.Args, "args preserved")
	assert.Equal(t, env, entry.Env)

	require.NoError(t, f.ctrl.UpdateEntry(ctx, "search", EntryUpdate{ClearEnv: true}))
	entry, _ = f.store.entry("search")
	assert.Nil(t, entry.Env)

	assert.Equal(t, args, f.ui.Snapshot().Config.Servers["search"].Args, "UI config reloaded")
}

func TestUpdateEntry_UnknownName(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.UpdateEntry(context.Background(), "nope", EntryUpdate{})
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Zero(t, f.store.writes)
}

func TestUpdatePath(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs", Args: []string{"serve", "/default"}})
	f.installed("search", api.InstalledServerEntry{Command: "npx", Args: []string{"search-mcp"}})
	f.supervisor.setRunning("fs", true)
	f.ui.SetPendingPath("fs", "/home/alice/docs")
	ctx := context.Background()

	require.NoError(t, f.ctrl.UpdatePath(ctx, "fs", "/home/alice/docs"))
	entry, _ := f.store.entry("fs")
	assert.Equal(t, []string{"serve", "/home/alice/docs"}, entry.Args)
	assert.Empty(t, f.ui.PendingPath("fs"))
	assert.True(t, f.supervisor.isRunning("fs"), "running process is left alone")
	assert.NotContains(t, f.log.snapshot(), "stop fs")

	err := f.ctrl.UpdatePath(ctx, "search", "/tmp")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	err = f.ctrl.UpdatePath(ctx, "fs", "  ")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	err = f.ctrl.UpdatePath(ctx, "custom", "/tmp")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err), "names outside the catalog take no path")
}

func TestCommitEnv(t *testing.T) {
	f := newFixture(t)
	f.installed("search", api.InstalledServerEntry{
		Command: "npx",
		Env:     map[string]string{"API_KEY": "old", "REGION": "us"},
	})
	ctx := context.Background()

	err := f.ctrl.CommitEnv(ctx, "search")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	f.ui.SetEnvDraft("search", "API_KEY", "new")
	f.ui.SetEnvDraft("search", "REGION", "")
	require.NoError(t, f.ctrl.CommitEnv(ctx, "search"))

	entry, _ := f.store.entry("search")
	assert.Equal(t, map[string]string{"API_KEY": "new", "REGION": "us"}, entry.Env)
	assert.Nil(t, f.ui.EnvDraft("search"))
}

func TestCommitEnv_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.installed("search", api.InstalledServerEntry{Command: "npx"})
	f.store.writeErr = &api.ConfigIOError{Op: "write", Path: "/cfg", Err: errBoom}
	f.ui.SetEnvDraft("search", "API_KEY", "new")

	err := f.ctrl.CommitEnv(context.Background(), "search")
	require.Error(t, err)
	assert.True(t, api.IsConfigIO(err))
	assert.Equal(t, api.EnvDraft{"API_KEY": "new"}, f.ui.EnvDraft("search"))
}

func TestSetGlobalShortcut(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.SetGlobalShortcut(context.Background(), "Ctrl+Alt+Space"))
	assert.Equal(t, "Ctrl+Alt+Space", f.ui.Snapshot().Config.GlobalShortcut)
}

func TestRestartHost(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, <-f.ctrl.RestartHost(context.Background()))

	f.restarter.err = errBoom
	assert.ErrorIs(t, <-f.ctrl.RestartHost(context.Background()), errBoom)
	assert.Equal(t, 2, f.restarter.calls)
}

func TestSetEnv(t *testing.T) {
	f := newFixture(t)
	f.installed("search", api.InstalledServerEntry{Command: "npx", Env: map[string]string{"REGION": "us"}})

	require.NoError(t, f.ctrl.SetEnv(context.Background(), "search", map[string]string{"API_KEY": "k"}))

	entry, _ := f.store.entry("search")
	assert.Equal(t, map[string]string{"API_KEY": "k", "REGION": "us"}, entry.Env)
	assert.Equal(t, "k", f.ctrl.View().Configured[0].Env["API_KEY"])
}

func TestRejectedUpdatesLeavePhaseToInFlightStart(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs", Args: []string{"serve", "/old"}})

	gate := make(chan struct{})
	f.supervisor.gates["fs"] = gate
	done := f.ctrl.StartAsync(context.Background(), "fs")
	require.Eventually(t, func() bool { return f.ctrl.Phase("fs") == api.PhaseStarting }, time.Second, time.Millisecond)

	rev := f.ui.Revision()
	require.Error(t, f.ctrl.UpdatePath(context.Background(), "fs", "  "))
	require.Error(t, f.ctrl.CommitEnv(context.Background(), "fs"))
	require.Error(t, f.ctrl.UpdatePath(context.Background(), "ghost", "/x"))
	require.Error(t, f.ctrl.InstallTemplate(context.Background(), "ghost", "", nil))
	assert.Equal(t, rev, f.ui.Revision(), "rejections do not write phase or status")

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, api.PhaseInstalled, f.ctrl.Phase("fs"), "start owns the phase")
	assert.Empty(t, f.ui.LastError("fs"))
	assert.True(t, f.ui.Running("fs"))
}
