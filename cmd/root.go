package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mcpdeck/internal/cli"
	"mcpdeck/pkg/logging"

	"github.com/spf13/cobra"
)

// flags holds the global flag values shared by all subcommands.
var flags cli.CommandFlags

// rootCmd represents the base command for the mcpdeck application.
var rootCmd = &cobra.Command{
	Use:   "mcpdeck",
	Short: "Install, configure, start and stop MCP servers of your desktop assistant",
	Long: `mcpdeck manages the MCP servers declared in the desktop host application's
configuration file (claude_desktop_config.json).

It installs servers from a template catalog, substitutes directories and
environment values into their invocation, starts and stops them, and keeps
the displayed status in line with what is actually running.

Run 'mcpdeck serve' to expose the same operations as MCP tools over stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logLevel(), os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// It is called from the main package with the version injected at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code describing the
// failure kind.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcpdeck version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := cli.Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(cli.ExitCode(err))
	}
}

// logLevel picks the log level from --debug, falling back to warnings only
// so that command output stays clean.
func logLevel() logging.LogLevel {
	if flags.Debug {
		return logging.LevelDebug
	}
	return logging.LevelWarn
}

func init() {
	cli.RegisterGlobalFlags(rootCmd, &flags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
