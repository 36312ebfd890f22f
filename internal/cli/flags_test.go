package cli

import (
	"bytes"
	"testing"

	"mcpdeck/internal/formatting"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterGlobalFlags(t *testing.T) {
	var flags CommandFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterGlobalFlags(cmd, &flags)

	cmd.SetArgs([]string{"-o", "json", "--quiet", "--config-dir", "/tmp/deck", "--host-config", "/tmp/host.json"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "json", flags.OutputFormat)
	assert.True(t, flags.Quiet)
	assert.Equal(t, "/tmp/deck", flags.ConfigDir)
	assert.Equal(t, "/tmp/host.json", flags.HostConfig)
}

func TestFormatterOptions(t *testing.T) {
	var buf bytes.Buffer

	opts, err := (&CommandFlags{OutputFormat: "yaml", NoHeaders: true}).FormatterOptions(&buf)
	require.NoError(t, err)
	assert.Equal(t, formatting.FormatYAML, opts.Format)
	assert.True(t, opts.NoHeaders)
	assert.False(t, opts.Color, "buffers are not terminals")

	_, err = (&CommandFlags{OutputFormat: "xml"}).FormatterOptions(&buf)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestRunWithSpinner_ReturnsResult(t *testing.T) {
	calls := 0
	err := RunWithSpinner(true, "working", func() error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}
