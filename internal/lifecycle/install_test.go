package lifecycle

import (
	"context"
	"testing"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall_PersistsResolvedEntry(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Install(context.Background(), InstallRequest{
		Template:    fsTemplate(),
		PendingPath: "/home/alice/docs",
	})
	require.NoError(t, err)

	entry, ok := f.store.entry("fs")
	require.True(t, ok)
	assert.Equal(t, api.InstalledServerEntry{Command: "mcp-fs", Args: []string{"serve", "/home/alice/docs"}}, entry)

	snap := f.ui.Snapshot()
	assert.True(t, snap.Config.Has("fs"), "config refreshed after install")
	assert.Len(t, snap.Templates, 2, "catalog refreshed after install")
	assert.Equal(t, api.PhaseInstalled, f.ctrl.Phase("fs"))
	assert.Empty(t, f.ui.LastError("fs"))

	history := f.events.History("fs")
	require.NotEmpty(t, history)
	assert.Equal(t, events.ReasonServerInstalled, history[len(history)-1].Reason)
}

func TestInstall_UsesUIPendingInput(t *testing.T) {
	f := newFixture(t)
	f.ui.SetPendingPath("fs", "/srv/data")
	f.ui.SetEnvDraft("search", "API_KEY", "k-123")

	require.NoError(t, f.ctrl.Install(context.Background(), InstallRequest{Template: fsTemplate()}))
	require.NoError(t, f.ctrl.Install(context.Background(), InstallRequest{Template: searchTemplate()}))

	fs, _ := f.store.entry("fs")
	assert.Equal(t, []string{"serve", "/srv/data"}, fs.Args)

	search, _ := f.store.entry("search")
	assert.Equal(t, map[string]string{"API_KEY": "k-123", "REGION": "us"}, search.Env)

	assert.Empty(t, f.ui.PendingPath("fs"), "pending selection cleared on success")
	assert.Nil(t, f.ui.EnvDraft("search"), "env draft cleared on success")
}

func TestInstall_ValidationHasNoSideEffects(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Install(context.Background(), InstallRequest{Template: searchTemplate()})
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"API_KEY"}, verr.MissingEnv)

	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.log.snapshot())
	assert.Equal(t, err.Error(), f.ui.LastError("search"))
	assert.Equal(t, api.PhaseNotInstalled, f.ctrl.Phase("search"))
}

func TestInstall_StoreFailureLeavesNoEntry(t *testing.T) {
	f := newFixture(t)
	f.store.writeErr = &api.ConfigIOError{Op: "write", Path: "/cfg.json", Err: errBoom}

	err := f.ctrl.Install(context.Background(), InstallRequest{Template: fsTemplate(), PendingPath: "/a"})
	require.Error(t, err)
	assert.True(t, api.IsInstallError(err))
	assert.True(t, api.IsConfigIO(err))

	_, ok := f.store.entry("fs")
	assert.False(t, ok)
	assert.Equal(t, api.PhaseNotInstalled, f.ctrl.Phase("fs"))
	assert.Equal(t, "/a", f.ui.PendingPath("fs"), "pending input kept for a retry")
}

func TestInstall_TwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Install(ctx, InstallRequest{Template: fsTemplate(), PendingPath: "/first"}))

	err := f.ctrl.Install(ctx, InstallRequest{Template: fsTemplate(), PendingPath: "/second"})
	require.Error(t, err)
	assert.True(t, api.IsAlreadyInstalled(err))

	entry, _ := f.store.entry("fs")
	assert.Equal(t, []string{"serve", "/first"}, entry.Args)
	assert.Equal(t, 1, f.store.writes)
}

func TestInstall_CatalogUnavailableStillInstalls(t *testing.T) {
	f := newFixture(t)
	f.catalog.listErr = &api.CatalogUnavailableError{Source: "builtin", Err: errBoom}

	require.NoError(t, f.ctrl.Install(context.Background(), InstallRequest{Template: fsTemplate()}))

	snap := f.ui.Snapshot()
	assert.Empty(t, snap.Templates)
	assert.True(t, snap.Config.Has("fs"))
}

func TestUninstall_UnknownName(t *testing.T) {
	f := newFixture(t)
	f.installed("other", api.InstalledServerEntry{Command: "x"})

	err := f.ctrl.Uninstall(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	_, ok := f.store.entry("other")
	assert.True(t, ok)
	assert.Zero(t, f.store.writes)
}

func TestUninstall_StoppedServer(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.ui.SetPendingPath("fs", "/leftover")

	require.NoError(t, f.ctrl.Uninstall(context.Background(), "fs"))

	_, ok := f.store.entry("fs")
	assert.False(t, ok)
	assert.Equal(t, api.PhaseNotInstalled, f.ctrl.Phase("fs"))
	assert.Empty(t, f.ui.PendingPath("fs"))
	assert.Equal(t, []string{"query fs", "delete fs"}, f.log.snapshot())
}

func TestUninstall_RunningServerIsStoppedFirst(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.setRunning("fs", true)
	f.ui.SetOptimistic("fs", true)

	require.NoError(t, f.ctrl.Uninstall(context.Background(), "fs"))

	assert.False(t, f.supervisor.isRunning("fs"))
	assert.Equal(t, []string{"query fs", "stop fs", "query fs", "delete fs"}, f.log.snapshot())
	f.assertInvariant(t)
}

func TestUninstall_StopFailureKeepsEntry(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.setRunning("fs", true)
	f.supervisor.ignoreStop["fs"] = true

	err := f.ctrl.Uninstall(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsStopFailed(err))

	_, ok := f.store.entry("fs")
	assert.True(t, ok, "entry kept while its process runs")
	assert.True(t, f.ui.Running("fs"))
	assert.Equal(t, api.PhaseInstalled, f.ctrl.Phase("fs"))
	f.assertInvariant(t)
}

func TestUninstall_RunningRefusedWithoutStopPolicy(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.StopBeforeUninstall = false })
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.setRunning("fs", true)

	err := f.ctrl.Uninstall(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	_, ok := f.store.entry("fs")
	assert.True(t, ok)
	assert.NotContains(t, f.log.snapshot(), "stop fs")
}

func TestInstallTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.InstallTemplate(ctx, "search", "", api.EnvDraft{"API_KEY": "k"}))
	entry, ok := f.store.entry("search")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"API_KEY": "k", "REGION": "us"}, entry.Env)

	err := f.ctrl.InstallTemplate(ctx, "nope", "", nil)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.NotEmpty(t, f.ui.LastError("nope"))
}
