package hostapp

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"mcpdeck/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const versionTimeout = 5 * time.Second

// Toolchain reports whether a launcher that catalog servers rely on is on
// PATH, and which version it reports.
type Toolchain struct {
	Name       string `json:"name"`
	Command    string `json:"command"`
	Installed  bool   `json:"installed"`
	Path       string `json:"path,omitempty"`
	Version    string `json:"version,omitempty"`
	InstallURL string `json:"installUrl"`
}

type toolchainSpec struct {
	name       string
	command    string
	windows    string
	installURL string
}

var toolchainSpecs = []toolchainSpec{
	{name: "node", command: "node", installURL: "https://nodejs.org/"},
	{name: "npx", command: "npx", installURL: "https://nodejs.org/"},
	{name: "uv", command: "uv", installURL: "https://github.com/astral-sh/uv"},
	{name: "uvx", command: "uvx", installURL: "https://github.com/astral-sh/uv"},
	{name: "python", command: "python3", windows: "python", installURL: "https://www.python.org/downloads/"},
}

// Toolchains checks node, npx, uv, uvx and python by looking them up on
// PATH and asking each for its version. Checks run concurrently.
func Toolchains(ctx context.Context) []Toolchain {
	return detectToolchains(ctx, runtime.GOOS, exec.LookPath, versionOutput)
}

func detectToolchains(ctx context.Context, goos string, lookPath func(string) (string, error), output func(context.Context, command) (string, error)) []Toolchain {
	out := make([]Toolchain, len(toolchainSpecs))
	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range toolchainSpecs {
		i, spec := i, spec
		g.Go(func() error {
			out[i] = checkToolchain(ctx, goos, spec, lookPath, output)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func checkToolchain(ctx context.Context, goos string, spec toolchainSpec, lookPath func(string) (string, error), output func(context.Context, command) (string, error)) Toolchain {
	name := spec.command
	if goos == "windows" && spec.windows != "" {
		name = spec.windows
	}
	tc := Toolchain{Name: spec.name, Command: name, InstallURL: spec.installURL}

	path, err := lookPath(name)
	if err != nil {
		logging.Debug("HostApp", "%s not found on PATH", name)
		return tc
	}
	tc.Path = path

	version, err := output(ctx, command{name: path, args: []string{"--version"}})
	if err != nil {
		logging.Debug("HostApp", "%s --version failed: %v", name, err)
		return tc
	}
	tc.Installed = true
	tc.Version = firstLine(version)
	return tc
}

func versionOutput(ctx context.Context, c command) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	// Some interpreters print their version on stderr.
	out, err := exec.CommandContext(ctx, c.name, c.args...).CombinedOutput()
	return string(out), err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
