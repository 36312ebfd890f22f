package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"mcpdeck/internal/events"
	"mcpdeck/internal/mcpsurface"
	"mcpdeck/internal/watcher"
	"mcpdeck/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	serveMetricsAddr string
	serveKeepRunning bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose mcpdeck's operations as MCP tools over stdio",
		Long: `Runs mcpdeck as an MCP server on stdin/stdout. While serving, the host
configuration is watched for changes and server status is refreshed
periodically, so external edits and crashed processes show up in the tools'
results.

Servers started while serving are stopped on exit unless --keep-running is
set. Logs go to stderr as JSON.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.InitForServer(logging.LevelInfo, os.Stderr)
		},
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().BoolVar(&serveKeepRunning, "keep-running", false, "Leave started servers running on exit")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d, err := newDeck(ctx)
	if err != nil {
		return err
	}
	level := logging.ParseLevel(d.cfg.LogLevel)
	if flags.Debug {
		level = logging.LevelDebug
	}
	logging.InitForServer(level, os.Stderr)

	w := watcher.New(d.store.Path(), 0)
	err = w.Start(ctx, func(ev watcher.ChangeEvent) {
		d.events.Record(events.ReasonConfigChanged, events.EventData{Operation: string(ev.Operation)})
		d.reconciler.Trigger()
	})
	if err != nil {
		logging.Warn("Serve", "Not watching host configuration: %v", err)
	} else {
		defer w.Stop()
	}

	go d.reconciler.Run(ctx, d.cfg.Lifecycle.StatusInterval())

	if serveMetricsAddr != "" {
		srv := &http.Server{Addr: serveMetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logging.Info("Serve", "Serving metrics on %s/metrics", serveMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Serve", err, "Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("Serve", "sd_notify failed: %v", err)
	} else if ok {
		logging.Debug("Serve", "Notified systemd of readiness")
	}

	surface := mcpsurface.New(d.ctrl, d.events, GetVersion())
	err = surface.Serve(ctx, os.Stdin, os.Stdout)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	if !serveKeepRunning {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), d.cfg.Lifecycle.StopTimeout()+time.Second)
		d.supervisor.StopAll(stopCtx)
		stopCancel()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Serve", "Stopped")
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
