package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"mcpdeck/internal/catalog"
	"mcpdeck/internal/cli"
	"mcpdeck/internal/config"
	"mcpdeck/internal/events"
	"mcpdeck/internal/formatting"
	"mcpdeck/internal/hostapp"
	"mcpdeck/internal/hostconfig"
	"mcpdeck/internal/lifecycle"
	"mcpdeck/internal/reconciler"
	"mcpdeck/internal/supervisor"
	"mcpdeck/internal/uistate"
	"mcpdeck/internal/view"
	"mcpdeck/pkg/logging"

	"github.com/spf13/cobra"
)

const eventJournalFile = "events.jsonl"

// deck wires the engine and its default collaborators for one invocation.
type deck struct {
	cfg        config.MCPDeckConfig
	store      *hostconfig.Store
	catalog    *catalog.Catalog
	supervisor *supervisor.Local
	ui         *uistate.Store
	events     *events.Recorder
	journal    *events.Journal
	reconciler *reconciler.Reconciler
	restarter  *hostapp.Restarter
	ctrl       *lifecycle.Controller
}

// newDeck loads mcpdeck's settings, builds the engine and performs the
// initial refresh of catalog, configuration and status.
func newDeck(ctx context.Context) (*deck, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}

	d := &deck{
		cfg:       cfg,
		store:     hostconfig.New(cfg.HostConfigPath),
		ui:        uistate.New(),
		events:    events.NewRecorder(0),
		journal:   events.NewJournal(filepath.Join(cfg.StateDir, eventJournalFile)),
		restarter: hostapp.NewRestarter(),
	}
	d.events.SetJournal(d.journal)
	d.catalog = catalog.New(d.store, cfg.CatalogPath)
	d.supervisor = supervisor.NewLocal(d.store, cfg.StateDir, cfg.Lifecycle.StopTimeout())
	d.reconciler = reconciler.New(d.supervisor, d.store, d.ui, reconciler.Options{
		Concurrency: cfg.Lifecycle.RefreshConcurrency,
	})
	d.ctrl = lifecycle.New(lifecycle.Deps{
		Store:      d.store,
		Catalog:    d.catalog,
		Supervisor: d.supervisor,
		UI:         d.ui,
		Restarter:  d.restarter,
		Syncer:     d.reconciler,
		Events:     d.events,
	}, lifecycle.Options{
		VerificationDelay:   cfg.Lifecycle.VerificationDelay(),
		StopBeforeUninstall: cfg.Lifecycle.ShouldStopBeforeUninstall(),
	})

	if err := d.ctrl.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to read host configuration: %w", err)
	}
	return d, nil
}

// loadSettings loads config.yaml from --config-dir and applies the
// --host-config override.
func loadSettings() (config.MCPDeckConfig, error) {
	cfg, err := config.LoadConfig(flags.ConfigDir)
	if err != nil {
		return config.MCPDeckConfig{}, err
	}
	if flags.HostConfig != "" {
		cfg.HostConfigPath = flags.HostConfig
	}
	return cfg, nil
}

// formatter returns the formatter selected by the global output flags.
func formatter(out io.Writer) (formatting.Formatter, error) {
	opts, err := flags.FormatterOptions(out)
	if err != nil {
		return nil, err
	}
	return formatting.New(opts), nil
}

// progress runs fn behind a spinner unless --quiet is set or stdout
// carries the MCP transport.
func progress(message string, fn func() error) error {
	return cli.RunWithSpinner(flags.Quiet || logging.IsServerMode(), message, fn)
}

// notice prints a human-oriented message unless --quiet is set, a
// machine-readable format was requested or mcpdeck is serving MCP.
func notice(out io.Writer, format string, args ...interface{}) {
	if flags.Quiet || logging.IsServerMode() {
		return
	}
	if f, err := formatting.ParseFormat(flags.OutputFormat); err == nil && (f == formatting.FormatJSON || f == formatting.FormatYAML) {
		return
	}
	fmt.Fprintf(out, format+"\n", args...)
}

// printServer prints the configured row for name, if there is one.
func printServer(out io.Writer, v view.View, name string) error {
	row, ok := findServer(v, name)
	if !ok {
		return nil
	}
	f, err := formatter(out)
	if err != nil {
		return err
	}
	return f.Servers([]view.ServerRow{row})
}

// restartHostIfRequested restarts the host application when want is set and
// otherwise reminds the user that the host only reads its config on start.
func restartHostIfRequested(cmd *cobra.Command, d *deck, want bool) error {
	out := cmd.OutOrStdout()
	if !want {
		notice(out, "Restart the host application to apply the change (mcpdeck restart-host)")
		return nil
	}
	err := progress("Restarting the host application...", func() error {
		return <-d.ctrl.RestartHost(cmd.Context())
	})
	if err != nil {
		return err
	}
	notice(out, "Host application restarted")
	return nil
}
