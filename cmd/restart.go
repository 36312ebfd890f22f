package cmd

import (
	"github.com/spf13/cobra"
)

func newRestartHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart-host",
		Short: "Restart the host application so it reloads its configuration",
		Long: `Quits the host application and launches it again. Supported on macOS and
Windows; on other platforms restart the application by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeck(cmd.Context())
			if err != nil {
				return err
			}
			return restartHostIfRequested(cmd, d, true)
		},
	}
}

func init() {
	rootCmd.AddCommand(newRestartHostCmd())
}
