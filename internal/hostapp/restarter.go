package hostapp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"mcpdeck/pkg/logging"
)

const (
	defaultAppName = "Claude"
	settleDelay    = 500 * time.Millisecond
)

// command is one external program invocation.
type command struct {
	name string
	args []string
}

func (c command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// plan is the kill-then-launch sequence for one platform.
type plan struct {
	kill   command
	launch command
}

// UnsupportedPlatformError is returned on platforms where the host
// application cannot be restarted automatically.
type UnsupportedPlatformError struct {
	GOOS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("restarting the host application is not supported on %s", e.GOOS)
}

// Restarter quits and relaunches the host desktop application so that it
// picks up configuration changes.
type Restarter struct {
	AppName string
	Delay   time.Duration

	goos   string
	getenv func(string) string
	run    func(ctx context.Context, c command) error
}

// NewRestarter returns a Restarter for the current platform.
func NewRestarter() *Restarter {
	return &Restarter{
		AppName: defaultAppName,
		Delay:   settleDelay,
		goos:    runtime.GOOS,
		getenv:  os.Getenv,
		run:     runCommand,
	}
}

// RestartHostApplication implements api.HostRestarter. The launch step is
// skipped when the kill step fails.
func (r *Restarter) RestartHostApplication(ctx context.Context) error {
	p, err := r.plan()
	if err != nil {
		return err
	}

	logging.Info("HostApp", "Stopping %s", r.AppName)
	if err := r.run(ctx, p.kill); err != nil {
		return fmt.Errorf("failed to stop %s: %w", r.AppName, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.Delay):
	}

	logging.Info("HostApp", "Launching %s", r.AppName)
	if err := r.run(ctx, p.launch); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.AppName, err)
	}
	return nil
}

func (r *Restarter) plan() (plan, error) {
	app := r.AppName
	if app == "" {
		app = defaultAppName
	}

	switch r.goos {
	case "darwin":
		return plan{
			kill:   command{name: "killall", args: []string{app}},
			launch: command{name: "open", args: []string{"-a", app}},
		}, nil
	case "windows":
		local := r.getenv("LOCALAPPDATA")
		if local == "" {
			return plan{}, fmt.Errorf("could not find LOCALAPPDATA directory")
		}
		exe := strings.ToLower(app) + ".exe"
		return plan{
			kill:   command{name: "taskkill", args: []string{"/IM", app + ".exe", "/F"}},
			launch: command{name: "cmd", args: []string{"/C", "start", "", filepath.Join(local, "AnthropicClaude", exe)}},
		}, nil
	default:
		return plan{}, &UnsupportedPlatformError{GOOS: r.goos}
	}
}

func runCommand(ctx context.Context, c command) error {
	logging.Debug("HostApp", "Running %s", c)
	out, err := exec.CommandContext(ctx, c.name, c.args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", c, err, msg)
		}
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}
