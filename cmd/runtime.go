package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>...",
		Short: "Start configured servers",
		Long: `Starts each named server with the command, arguments and environment of
its host configuration entry, then checks after a short grace interval that
the process is still alive. Output goes to the server's log file (see
mcpdeck logs).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args, "Starting", "Started", func(d *deck, ctx context.Context, name string) error {
				return d.ctrl.Start(ctx, name)
			})
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>...",
		Short: "Stop running servers",
		Long: `Stops each named server. The host configuration entry is kept; use
mcpdeck uninstall to remove it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args, "Stopping", "Stopped", func(d *deck, ctx context.Context, name string) error {
				return d.ctrl.Stop(ctx, name)
			})
		},
	}
}

// runLifecycle applies op to each name in order and stops at the first
// failure.
func runLifecycle(cmd *cobra.Command, names []string, verb, done string, op func(*deck, context.Context, string) error) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	d, err := newDeck(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		err := progress(fmt.Sprintf("%s %s...", verb, name), func() error {
			return op(d, ctx, name)
		})
		if err != nil {
			return err
		}
		notice(out, "%s %s", done, name)
	}

	for _, name := range names {
		if err := printServer(out, d.ctrl.View(), name); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
}
