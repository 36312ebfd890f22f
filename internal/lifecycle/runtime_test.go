package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/internal/events"
	"mcpdeck/internal/view"
	"mcpdeck/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningObserver records every running value the UI showed for one name.
func runningObserver(f *fixture, name string) func() []bool {
	var mu sync.Mutex
	var seen []bool
	f.ui.Subscribe(func(v view.View) {
		for _, row := range v.Configured {
			if row.Name == name {
				mu.Lock()
				if len(seen) == 0 || seen[len(seen)-1] != row.Running {
					seen = append(seen, row.Running)
				}
				mu.Unlock()
			}
		}
	})
	return func() []bool {
		mu.Lock()
		defer mu.Unlock()
		return append([]bool(nil), seen...)
	}
}

func TestStart_Success(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})

	require.NoError(t, f.ctrl.Start(context.Background(), "fs"))

	assert.True(t, f.ui.Running("fs"))
	assert.Equal(t, api.PhaseInstalled, f.ctrl.Phase("fs"))
	assert.Equal(t, []string{"start fs", "query fs"}, f.log.snapshot())
	f.assertInvariant(t)
}

func TestStart_RollbackWhenNotRunning(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.ignoreStart["fs"] = true
	seen := runningObserver(f, "fs")

	err := f.ctrl.Start(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsStartFailed(err))

	assert.False(t, f.ui.Running("fs"))
	assert.Equal(t, []bool{false, true, false}, seen(), "optimistic true then reverted")
	assert.Equal(t, err.Error(), f.ui.LastError("fs"))
	assert.Equal(t, []string{"start fs", "query fs"}, f.log.snapshot(), "no retry")
}

func TestStart_SupervisorErrorReverts(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.startErr = errBoom

	err := f.ctrl.Start(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsStartFailed(err))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, f.ui.Running("fs"))
}

func TestStart_QueryErrorCountsAsFailure(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.queryErr["fs"] = errBoom

	err := f.ctrl.Start(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsStartFailed(err))
	assert.False(t, f.ui.Running("fs"))
}

func TestStart_UnknownName(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Start(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Empty(t, f.log.snapshot())
	assert.False(t, f.ui.Running("fs"))
}

func TestStop_Success(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.setRunning("fs", true)
	f.ui.SetOptimistic("fs", true)

	require.NoError(t, f.ctrl.Stop(context.Background(), "fs"))
	assert.False(t, f.ui.Running("fs"))
	assert.False(t, f.supervisor.isRunning("fs"))
}

func TestStop_RollbackKeepsEntry(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.setRunning("fs", true)
	f.supervisor.ignoreStop["fs"] = true
	f.ui.SetOptimistic("fs", true)
	seen := runningObserver(f, "fs")

	err := f.ctrl.Stop(context.Background(), "fs")
	require.Error(t, err)
	assert.True(t, api.IsStopFailed(err))

	assert.True(t, f.ui.Running("fs"))
	assert.Equal(t, []bool{true, false, true}, seen(), "optimistic false then reverted")
	_, ok := f.store.entry("fs")
	assert.True(t, ok, "stop failure never removes the entry")
	f.assertInvariant(t)
}

func TestStartAsync_DoesNotBlockCaller(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.VerificationDelay = 50 * time.Millisecond })
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})

	done := f.ctrl.StartAsync(context.Background(), "fs")
	select {
	case <-done:
		t.Fatal("StartAsync returned before verification")
	default:
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not complete")
	}
	_, open := <-done
	assert.False(t, open)
}

func TestStart_VerificationSurvivesCancellation(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.VerificationDelay = 50 * time.Millisecond })
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.ignoreStart["fs"] = true

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool { return f.ui.Running("fs") }, time.Second, time.Millisecond)
		cancel()
	}()

	err := f.ctrl.Start(ctx, "fs")
	assert.True(t, errors.Is(err, context.Canceled))

	require.Eventually(t, func() bool {
		return f.ctrl.Phase("fs") == api.PhaseInstalled && !f.ui.Running("fs")
	}, 2*time.Second, 5*time.Millisecond, "verification still reverts the optimistic state")
	assert.Contains(t, f.log.snapshot(), "query fs")
}

func TestSameNameOperationsAreSerialized(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.VerificationDelay = 30 * time.Millisecond })
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})

	startDone := f.ctrl.StartAsync(context.Background(), "fs")
	require.Eventually(t, func() bool { return f.ctrl.Phase("fs") == api.PhaseStarting }, time.Second, time.Millisecond)

	require.NoError(t, f.ctrl.Uninstall(context.Background(), "fs"))
	require.NoError(t, <-startDone)

	assert.Equal(t, []string{
		"start fs", "query fs",
		"query fs", "stop fs", "query fs", "delete fs",
	}, f.log.snapshot(), "uninstall waits for the start verification")
	assert.False(t, f.ui.Running("fs"))
	f.assertInvariant(t)
}

func TestDifferentNamesRunInParallel(t *testing.T) {
	f := newFixture(t)
	f.installed("a", api.InstalledServerEntry{Command: "a"})
	f.installed("b", api.InstalledServerEntry{Command: "b"})

	gate := make(chan struct{})
	f.supervisor.gates["a"] = gate

	aDone := f.ctrl.StartAsync(context.Background(), "a")
	require.NoError(t, f.ctrl.Start(context.Background(), "b"), "b is not blocked by a")

	close(gate)
	require.NoError(t, <-aDone)
	assert.True(t, f.ui.Running("a"))
	assert.True(t, f.ui.Running("b"))
}

func TestFailureOnOneNameDoesNotTouchAnother(t *testing.T) {
	f := newFixture(t)
	f.installed("a", api.InstalledServerEntry{Command: "a"})
	f.installed("b", api.InstalledServerEntry{Command: "b"})
	f.supervisor.ignoreStart["b"] = true

	require.NoError(t, f.ctrl.Start(context.Background(), "a"))
	require.Error(t, f.ctrl.Start(context.Background(), "b"))

	assert.True(t, f.ui.Running("a"))
	assert.Empty(t, f.ui.LastError("a"))
	assert.NotEmpty(t, f.ui.LastError("b"))
}

func TestNameLocksAreReleased(t *testing.T) {
	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})

	require.NoError(t, f.ctrl.Start(context.Background(), "fs"))
	require.NoError(t, f.ctrl.Stop(context.Background(), "fs"))
	assert.Zero(t, f.ctrl.locks.size())
}

func TestFailureEventsNameTheServerOnce(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		run      func(f *fixture) error
		reason   events.EventReason
		expected string
	}{
		{
			name:     "start not running",
			setup:    func(f *fixture) { f.supervisor.ignoreStart["fs"] = true },
			run:      func(f *fixture) error { return f.ctrl.Start(context.Background(), "fs") },
			reason:   events.ReasonServerStartFailed,
			expected: "Server fs failed to start: not running after verification",
		},
		{
			name:     "start supervisor error",
			setup:    func(f *fixture) { f.supervisor.startErr = errBoom },
			run:      func(f *fixture) error { return f.ctrl.Start(context.Background(), "fs") },
			reason:   events.ReasonServerStartFailed,
			expected: "Server fs failed to start: boom",
		},
		{
			name: "stop still running",
			setup: func(f *fixture) {
				f.supervisor.setRunning("fs", true)
				f.supervisor.ignoreStop["fs"] = true
			},
			run:      func(f *fixture) error { return f.ctrl.Stop(context.Background(), "fs") },
			reason:   events.ReasonServerStopFailed,
			expected: "Server fs failed to stop: still running after verification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
			tt.setup(f)

			require.Error(t, tt.run(f))

			history := f.events.History("fs")
			require.NotEmpty(t, history)
			last := history[len(history)-1]
			assert.Equal(t, tt.reason, last.Reason)
			assert.Equal(t, tt.expected, last.Message)
		})
	}
}

func TestRollbackIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logging.InitForCLI(logging.LevelWarn, &buf)
	t.Cleanup(func() { logging.InitForCLI(logging.LevelInfo, &bytes.Buffer{}) })

	f := newFixture(t)
	f.installed("fs", api.InstalledServerEntry{Command: "mcp-fs"})
	f.supervisor.ignoreStart["fs"] = true
	f.supervisor.setRunning("gh", true)
	f.supervisor.ignoreStop["gh"] = true
	f.installed("gh", api.InstalledServerEntry{Command: "gh-mcp"})

	require.Error(t, f.ctrl.Start(context.Background(), "fs"))
	require.Error(t, f.ctrl.Stop(context.Background(), "gh"))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "failed to start"), out)
	assert.Equal(t, 1, strings.Count(out, "failed to stop"), out)
}
