package reconciler

import (
	"context"
	"sync"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/uistate"
	"mcpdeck/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent status queries when Options leaves
// it unset.
const DefaultConcurrency = 4

// Options tunes the reconciler.
type Options struct {
	Concurrency int
}

// Reconciler refreshes observed status for all configured servers.
type Reconciler struct {
	supervisor  api.Supervisor
	store       api.ConfigStore
	ui          *uistate.Store
	concurrency int
	metrics     *SyncMetrics

	trigger chan struct{}
}

// New creates a reconciler writing into ui.
func New(supervisor api.Supervisor, store api.ConfigStore, ui *uistate.Store, opts Options) *Reconciler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Reconciler{
		supervisor:  supervisor,
		store:       store,
		ui:          ui,
		concurrency: opts.Concurrency,
		metrics:     NewSyncMetrics(),
		trigger:     make(chan struct{}, 1),
	}
}

// Metrics returns the reconciler's query metrics.
func (r *Reconciler) Metrics() *SyncMetrics { return r.metrics }

// RefreshAll queries the supervisor once per name. Failing queries map to
// false. It never returns an error.
func (r *Reconciler) RefreshAll(ctx context.Context, names []string) map[string]bool {
	results := make(map[string]bool, len(names))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, name := range names {
		g.Go(func() error {
			running, err := r.supervisor.QueryRunning(ctx, name)
			if err != nil {
				r.metrics.RecordQueryFailure(name, err)
				running = false
			} else {
				r.metrics.RecordQuerySuccess(name)
			}

			mu.Lock()
			results[name] = running
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Sync reads the host configuration, queries status for every entry and
// replaces the UI store's config and status. If the configuration cannot be
// read the UI keeps its previous state and the error is returned.
func (r *Reconciler) Sync(ctx context.Context) (err error) {
	defer func() { r.metrics.RecordSync(err) }()

	since := r.ui.Revision()
	cfg, err := r.store.ReadConfig(ctx)
	if err != nil {
		logging.Warn("Reconciler", "Cannot read host configuration, keeping last known state: %v", err)
		return err
	}
	names := cfg.Names()
	status := r.RefreshAll(ctx, names)

	// Operations that settled or are still verifying own their names'
	// status; MergeSync keeps it under the store lock.
	r.ui.MergeSync(cfg, status, since)
	r.metrics.Forget(names)

	logging.Debug("Reconciler", "Synced status of %d servers", len(names))
	return nil
}

// Trigger requests a sync from a running Run loop. Requests coalesce.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run syncs every interval and on Trigger until ctx is done. A zero
// interval disables the periodic sync.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	logging.Info("Reconciler", "Status reconciler started (interval %s)", interval)
	for {
		select {
		case <-ctx.Done():
			logging.Info("Reconciler", "Status reconciler stopped")
			return
		case <-tick:
		case <-r.trigger:
		}
		if err := r.Sync(ctx); err != nil && ctx.Err() == nil {
			logging.Debug("Reconciler", "Sync failed: %v", err)
		}
	}
}
