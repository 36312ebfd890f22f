package lifecycle

import (
	"context"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/pkg/logging"
)

// Start asks the supervisor to start name and verifies the result after the
// grace interval. The UI shows the server running immediately; if the
// verification query reports it stopped (or fails) the UI is reverted and a
// StartFailedError is returned.
//
// If ctx is cancelled during verification Start returns ctx.Err(), but the
// verification still completes and reconciles the UI store.
func (c *Controller) Start(ctx context.Context, name string) error {
	return wait(ctx, c.StartAsync(ctx, name))
}

// StartAsync runs Start in the background. The channel receives exactly one
// result and is then closed.
func (c *Controller) StartAsync(ctx context.Context, name string) <-chan error {
	return c.runAsync(ctx, name, c.start)
}

// Stop asks the supervisor to stop name and verifies the result after the
// grace interval. If the server is still running the UI is reverted to
// running and a StopFailedError is returned. The config entry is never
// touched.
func (c *Controller) Stop(ctx context.Context, name string) error {
	return wait(ctx, c.StopAsync(ctx, name))
}

// StopAsync runs Stop in the background.
func (c *Controller) StopAsync(ctx context.Context, name string) <-chan error {
	return c.runAsync(ctx, name, func(ctx context.Context, name string) error {
		return c.stop(ctx, name, events.NewOperationID())
	})
}

// runAsync acquires the name lock with the caller's context, then runs op
// on a context that is no longer cancelled by the caller.
func (c *Controller) runAsync(ctx context.Context, name string, op func(context.Context, string) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		release, err := c.locks.acquire(ctx, name)
		if err != nil {
			done <- err
			return
		}
		defer release()
		done <- op(context.WithoutCancel(ctx), name)
	}()
	return done
}

func (c *Controller) start(ctx context.Context, name string) (err error) {
	started := time.Now()
	defer func() { recordMetrics("start", started, err) }()

	if _, err := c.lookupEntry(ctx, name); err != nil {
		c.ui.RecordError(name, err)
		return err
	}

	opID := events.NewOperationID()
	c.ui.SetPhase(name, api.PhaseStarting)
	c.record(events.ReasonServerStarting, events.EventData{Name: name, OperationID: opID})
	logging.Info("Lifecycle", "Starting server %s", name)

	c.ui.SetOptimistic(name, true)

	if err := c.supervisor.StartProcess(ctx, name); err != nil {
		return c.startFailed(name, opID, &api.StartFailedError{Name: name, Err: err})
	}

	running, qerr := c.verify(ctx, name)
	if qerr != nil {
		return c.startFailed(name, opID, &api.StartFailedError{Name: name, Err: qerr})
	}
	if !running {
		return c.startFailed(name, opID, &api.StartFailedError{Name: name})
	}

	c.ui.RevertStatus(name, true)
	c.record(events.ReasonServerStarted, events.EventData{Name: name, OperationID: opID, Duration: time.Since(started)})
	logging.Info("Lifecycle", "Server %s is running", name)
	return c.settle(name, api.PhaseInstalled, nil)
}

func (c *Controller) startFailed(name, opID string, err error) error {
	c.ui.RevertStatus(name, false)
	rollbacksTotal.WithLabelValues("start").Inc()
	c.record(events.ReasonServerStartFailed, events.EventData{Name: name, OperationID: opID, Error: errString(err)})
	return c.settle(name, api.PhaseInstalled, err)
}

// stop runs the stop protocol. The caller holds the name lock. It does not
// require an entry so that processes left behind by external edits can
// still be stopped.
func (c *Controller) stop(ctx context.Context, name, opID string) (err error) {
	started := time.Now()
	defer func() { recordMetrics("stop", started, err) }()

	prevPhase := c.Phase(name)
	if prevPhase.Busy() {
		prevPhase = api.PhaseInstalled
	}
	c.ui.SetPhase(name, api.PhaseStopping)
	c.record(events.ReasonServerStopping, events.EventData{Name: name, OperationID: opID})
	logging.Info("Lifecycle", "Stopping server %s", name)

	c.ui.SetOptimistic(name, false)

	if err := c.supervisor.StopProcess(ctx, name); err != nil {
		return c.stopFailed(name, opID, prevPhase, &api.StopFailedError{Name: name, Err: err})
	}

	running, qerr := c.verify(ctx, name)
	if qerr != nil {
		return c.stopFailed(name, opID, prevPhase, &api.StopFailedError{Name: name, Err: qerr})
	}
	if running {
		return c.stopFailed(name, opID, prevPhase, &api.StopFailedError{Name: name})
	}

	c.ui.RevertStatus(name, false)
	c.record(events.ReasonServerStopped, events.EventData{Name: name, OperationID: opID, Duration: time.Since(started)})
	logging.Info("Lifecycle", "Server %s stopped", name)
	return c.settle(name, prevPhase, nil)
}

func (c *Controller) stopFailed(name, opID string, phase api.Phase, err error) error {
	c.ui.RevertStatus(name, true)
	rollbacksTotal.WithLabelValues("stop").Inc()
	c.record(events.ReasonServerStopFailed, events.EventData{Name: name, OperationID: opID, Error: errString(err)})
	return c.settle(name, phase, err)
}

// verify waits the grace interval and then queries the supervisor once.
func (c *Controller) verify(ctx context.Context, name string) (bool, error) {
	timer := time.NewTimer(c.opts.VerificationDelay)
	defer timer.Stop()
	<-timer.C

	running, err := c.supervisor.QueryRunning(ctx, name)
	if err != nil {
		logging.Warn("Lifecycle", "Status query for %s failed: %v", name, err)
		return false, err
	}
	logging.Debug("Lifecycle", "Verified %s running=%t", name, running)
	return running, nil
}
