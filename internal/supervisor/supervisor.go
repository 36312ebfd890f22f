package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"mcpdeck/internal/api"
	"mcpdeck/pkg/logging"
)

const (
	defaultStopTimeout = 5 * time.Second
	pollInterval       = 50 * time.Millisecond
)

// Local runs MCP servers as detached child processes of the current
// machine. State lives under stateDir:
//
//	pids/<name>.pid   PID of the running process
//	logs/<name>.log   combined stdout/stderr
//	fifo/<name>       stdin (unix)
//
// so status survives across mcpdeck invocations.
type Local struct {
	store       api.ConfigStore
	stateDir    string
	stopTimeout time.Duration

	mu       sync.Mutex
	children map[string]*child
}

type child struct {
	cmd   *exec.Cmd
	stdin io.Closer
	done  chan struct{}
}

// NewLocal creates a supervisor that reads command lines from store.
func NewLocal(store api.ConfigStore, stateDir string, stopTimeout time.Duration) *Local {
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Local{
		store:       store,
		stateDir:    stateDir,
		stopTimeout: stopTimeout,
		children:    make(map[string]*child),
	}
}

// StartProcess launches the entry named name. Starting a server that is
// already running is a no-op.
func (l *Local) StartProcess(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pid, ok := l.livePID(name); ok {
		logging.Debug("Supervisor", "Server %s already running with PID %d", name, pid)
		return nil
	}

	cfg, err := l.store.ReadConfig(ctx)
	if err != nil {
		return err
	}
	entry, ok := cfg.Servers[name]
	if !ok {
		return api.NewServerNotFoundError(name)
	}

	for _, dir := range []string{l.pidDir(), l.logDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	logFile, err := os.OpenFile(l.LogPath(name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(entry.Command, entry.Args...)
	cmd.Env = mergeEnviron(os.Environ(), entry.Env)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	configureProcAttr(cmd)

	stdin, err := l.attachStdin(cmd, name)
	if err != nil {
		return fmt.Errorf("prepare stdin: %w", err)
	}

	fmt.Fprintf(logFile, "--- %s starting %s %s\n", time.Now().Format(time.RFC3339), entry.Command, strings.Join(entry.Args, " "))
	if err := cmd.Start(); err != nil {
		if stdin != nil {
			stdin.Close()
		}
		return fmt.Errorf("start %s: %w", entry.Command, err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(l.pidPath(name), []byte(strconv.Itoa(pid)), 0644); err != nil {
		_ = terminate(pid, true)
		return fmt.Errorf("write pid file: %w", err)
	}

	c := &child{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	l.children[name] = c
	go l.reap(name, c)

	logging.Info("Supervisor", "Started %s (PID %d)", name, pid)
	return nil
}

// reap waits for a child started by this process so it does not linger as
// a zombie, then cleans up its PID file.
func (l *Local) reap(name string, c *child) {
	err := c.cmd.Wait()
	if c.stdin != nil {
		c.stdin.Close()
	}

	l.mu.Lock()
	if l.children[name] == c {
		delete(l.children, name)
	}
	if pid, ok := l.readPID(name); ok && pid == c.cmd.Process.Pid {
		os.Remove(l.pidPath(name))
	}
	l.mu.Unlock()
	close(c.done)

	if err != nil {
		logging.Info("Supervisor", "Server %s exited: %v", name, err)
	} else {
		logging.Info("Supervisor", "Server %s exited", name)
	}
}

// StopProcess sends a termination signal, waits up to the stop timeout and
// then kills the process. Stopping a server that is not running is a no-op.
func (l *Local) StopProcess(ctx context.Context, name string) error {
	l.mu.Lock()
	pid, ok := l.livePID(name)
	c := l.children[name]
	l.mu.Unlock()
	if !ok {
		return nil
	}

	logging.Info("Supervisor", "Stopping %s (PID %d)", name, pid)
	if err := terminate(pid, false); err != nil {
		return fmt.Errorf("signal %s: %w", name, err)
	}

	deadline := time.NewTimer(l.stopTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if c != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
		}
		if !processAlive(pid) {
			l.clearPID(name, pid)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			logging.Warn("Supervisor", "Server %s did not exit within %s, killing it", name, l.stopTimeout)
			if err := terminate(pid, true); err != nil {
				return fmt.Errorf("kill %s: %w", name, err)
			}
			return nil
		case <-ticker.C:
		}
	}
}

// QueryRunning reports whether the server's recorded process is alive.
func (l *Local) QueryRunning(ctx context.Context, name string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.livePID(name)
	return ok, nil
}

// StopAll stops every server this process started.
func (l *Local) StopAll(ctx context.Context) {
	l.mu.Lock()
	names := make([]string, 0, len(l.children))
	for name := range l.children {
		names = append(names, name)
	}
	l.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		if err := l.StopProcess(ctx, name); err != nil {
			logging.Error("Supervisor", err, "Failed to stop %s during shutdown", name)
		}
	}
}

// LogPath returns the log file of name.
func (l *Local) LogPath(name string) string {
	return filepath.Join(l.logDir(), fileName(name)+".log")
}

// livePID returns the PID of name if its process is alive. A stale PID
// file is removed. The caller holds l.mu.
func (l *Local) livePID(name string) (int, bool) {
	pid, ok := l.readPID(name)
	if !ok {
		return 0, false
	}
	if c := l.children[name]; c != nil && c.cmd.Process.Pid == pid {
		select {
		case <-c.done:
			return 0, false
		default:
			return pid, true
		}
	}
	if processAlive(pid) {
		return pid, true
	}
	os.Remove(l.pidPath(name))
	return 0, false
}

func (l *Local) readPID(name string) (int, bool) {
	data, err := os.ReadFile(l.pidPath(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Supervisor", "Cannot read PID file for %s: %v", name, err)
		}
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func (l *Local) clearPID(name string, pid int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.readPID(name); ok && cur == pid {
		os.Remove(l.pidPath(name))
	}
}

func (l *Local) pidDir() string  { return filepath.Join(l.stateDir, "pids") }
func (l *Local) logDir() string  { return filepath.Join(l.stateDir, "logs") }
func (l *Local) fifoDir() string { return filepath.Join(l.stateDir, "fifo") }

func (l *Local) pidPath(name string) string {
	return filepath.Join(l.pidDir(), fileName(name)+".pid")
}

// fileName makes a server name safe to use as a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// mergeEnviron overlays env onto base in KEY=VALUE form.
func mergeEnviron(base []string, env map[string]string) []string {
	if len(env) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(env))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, override := env[key]; override {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
