package cli

import (
	"io"
	"os"

	"mcpdeck/internal/config"
	"mcpdeck/internal/formatting"

	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by every mcpdeck command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, wide, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// ConfigDir is the directory holding config.yaml and the state directory
	ConfigDir string
	// HostConfig overrides the host application's configuration file
	HostConfig string
}

// RegisterGlobalFlags registers the shared flags as persistent flags of cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, wide, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --config-dir: mcpdeck configuration directory
//   - --host-config: Host application configuration file
func RegisterGlobalFlags(cmd *cobra.Command, flags *CommandFlags) {
	defaultDir, err := config.GetDefaultConfigDir()
	if err != nil {
		defaultDir = ""
	}
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, wide, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", defaultDir, "mcpdeck configuration directory")
	cmd.PersistentFlags().StringVar(&flags.HostConfig, "host-config", "", "Host application configuration file (default from config.yaml or the platform location)")
}

// FormatterOptions validates the output flags and returns formatter
// options writing to out.
func (f *CommandFlags) FormatterOptions(out io.Writer) (formatting.Options, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return formatting.Options{}, err
	}
	return formatting.Options{
		Format:    format,
		NoHeaders: f.NoHeaders,
		Color:     colorEnabled(out),
		Out:       out,
	}, nil
}

// colorEnabled reports whether out is a terminal and NO_COLOR is unset.
func colorEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
