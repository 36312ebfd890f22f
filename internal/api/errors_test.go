package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "missing env keys",
			err:  &ValidationError{Name: "postgres", MissingEnv: []string{"DATABASE_URL"}},
			want: "invalid input for postgres: missing environment values: DATABASE_URL",
		},
		{
			name: "missing path and env",
			err:  &ValidationError{Name: "fs", MissingPath: true, MissingEnv: []string{"A", "B"}},
			want: "invalid input for fs: a directory path is required; missing environment values: A, B",
		},
		{
			name: "custom message",
			err:  &ValidationError{Name: "git", Message: "entry does not take a path"},
			want: "invalid input for git: entry does not take a path",
		},
		{
			name: "bare",
			err:  &ValidationError{Name: "x"},
			want: "invalid input for x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorHelpers_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	ioErr := &ConfigIOError{Op: "write", Path: "/tmp/c.json", Err: cause}
	installErr := fmt.Errorf("outer: %w", &InstallError{Name: "fs", Err: ioErr})

	assert.True(t, IsInstallError(installErr))
	assert.True(t, IsConfigIO(installErr))
	assert.ErrorIs(t, installErr, cause)
	assert.False(t, IsNotFound(installErr))

	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewServerNotFoundError("fs"))))
	assert.Equal(t, "template fetch not found", NewTemplateNotFoundError("fetch").Error())
	assert.True(t, IsAlreadyInstalled(&AlreadyInstalledError{Name: "fs"}))
	assert.True(t, IsValidation(&ValidationError{Name: "fs"}))
	assert.True(t, IsCatalogUnavailable(&CatalogUnavailableError{Source: "x", Err: cause}))
}

func TestStartStopFailed_Messages(t *testing.T) {
	assert.Equal(t, "server fs failed to start: not running after verification",
		(&StartFailedError{Name: "fs"}).Error())
	assert.Equal(t, "server fs failed to stop: still running after verification",
		(&StopFailedError{Name: "fs"}).Error())

	cause := errors.New("exec: npx not found")
	err := &StartFailedError{Name: "fs", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsStartFailed(err))
	assert.False(t, IsStopFailed(err))
	assert.True(t, IsStopFailed(&StopFailedError{Name: "fs"}))
}

func TestHostConfig_NamesAndClone(t *testing.T) {
	cfg := HostConfig{Servers: map[string]InstalledServerEntry{
		"b": {Command: "npx"},
		"a": {Command: "uvx", Args: []string{"x"}, Env: map[string]string{"K": "V"}},
	}}
	assert.Equal(t, []string{"a", "b"}, cfg.Names())
	assert.True(t, cfg.Has("a"))
	assert.False(t, cfg.Has("c"))

	clone := cfg.Servers["a"].Clone()
	clone.Args[0] = "changed"
	clone.Env["K"] = "changed"
	assert.Equal(t, "x", cfg.Servers["a"].Args[0])
	assert.Equal(t, "V", cfg.Servers["a"].Env["K"])
}

func TestPhase_Busy(t *testing.T) {
	assert.True(t, PhaseStarting.Busy())
	assert.True(t, PhaseUninstalling.Busy())
	assert.False(t, PhaseInstalled.Busy())
	assert.False(t, PhaseNotInstalled.Busy())
}
