package hostapp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Darwin(t *testing.T) {
	present := map[string]bool{
		"/Applications/Claude.app": true,
		"/cfg/claude.json":         true,
	}
	p := detect("darwin", func(string) string { return "" }, "/cfg/claude.json", func(path string) bool { return present[path] })

	assert.True(t, p.HostConfigExists)
	assert.True(t, p.AppInstalled)
	assert.Equal(t, "/Applications/Claude.app", p.AppPath)
}

func TestDetect_LinuxFallsBackToConfigDir(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "Claude", "claude_desktop_config.json")

	p := detect("linux", os.Getenv, cfg, exists)
	assert.False(t, p.HostConfigExists)
	assert.False(t, p.AppInstalled)
	assert.Empty(t, p.AppPath)

	require.NoError(t, os.MkdirAll(filepath.Dir(cfg), 0755))
	require.NoError(t, os.WriteFile(cfg, []byte("{}"), 0644))

	p = detect("linux", os.Getenv, cfg, exists)
	assert.True(t, p.HostConfigExists)
	assert.True(t, p.AppInstalled)
}

func TestDetect_WindowsWithoutLocalAppData(t *testing.T) {
	p := detect("windows", func(string) string { return "" }, `C:\cfg\claude.json`, func(string) bool { return false })
	assert.Empty(t, p.AppPath)
	assert.False(t, p.AppInstalled)
}
