package cmd

import (
	"path/filepath"

	"mcpdeck/internal/events"

	"github.com/spf13/cobra"
)

var eventsLimit int

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events [name]",
		Short: "Show recent lifecycle events",
		Long: `Shows installs, starts, stops, failed verifications and other lifecycle
events recorded by earlier mcpdeck invocations, oldest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}

			evts, err := events.NewJournal(filepath.Join(cfg.StateDir, eventJournalFile)).Read(name, eventsLimit)
			if err != nil {
				return err
			}
			f, err := formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return f.Events(evts)
		},
	}
	cmd.Flags().IntVar(&eventsLimit, "limit", 50, "Maximum number of events to show (0 shows all)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newEventsCmd())
}
