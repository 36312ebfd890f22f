package cmd

import (
	"fmt"
	"io"

	"mcpdeck/internal/formatting"
	"mcpdeck/internal/hostapp"
	"mcpdeck/internal/hostconfig"
	"mcpdeck/internal/reconciler"
	"mcpdeck/internal/view"

	"github.com/spf13/cobra"
)

// statusReport is the machine-readable form of `mcpdeck status`.
type statusReport struct {
	hostapp.Presence
	Catalog        string `json:"catalog"`
	StateDir       string `json:"stateDir"`
	Configured     int    `json:"configured"`
	Running        int    `json:"running"`
	GlobalShortcut string `json:"globalShortcut"`

	Toolchains []hostapp.Toolchain           `json:"toolchains"`
	Sync       reconciler.SyncMetricsSummary `json:"sync"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the host configuration lives and how many servers run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeck(cmd.Context())
			if err != nil {
				return err
			}
			v := d.ctrl.View()

			report := statusReport{
				Presence:       hostapp.Detect(d.store.Path()),
				Catalog:        d.catalog.Source(),
				StateDir:       d.cfg.StateDir,
				Configured:     len(v.Configured),
				GlobalShortcut: v.GlobalShortcut,
				Toolchains:     hostapp.Toolchains(cmd.Context()),
				Sync:           d.reconciler.Metrics().Summary(),
			}
			for _, row := range v.Configured {
				if row.Running {
					report.Running++
				}
			}
			return printStatus(cmd.OutOrStdout(), report)
		},
	}
}

func printStatus(out io.Writer, r statusReport) error {
	format, err := formatting.ParseFormat(flags.OutputFormat)
	if err != nil {
		return err
	}
	if format == formatting.FormatJSON || format == formatting.FormatYAML {
		f, err := formatter(out)
		if err != nil {
			return err
		}
		return f.Object(r)
	}

	fmt.Fprintf(out, "Host config:     %s (%s)\n", r.HostConfigPath, existence(r.HostConfigExists))
	if r.AppPath != "" {
		fmt.Fprintf(out, "Host app:        %s (%s)\n", r.AppPath, existence(r.AppInstalled))
	} else {
		fmt.Fprintf(out, "Host app:        %s\n", existence(r.AppInstalled))
	}
	fmt.Fprintf(out, "Catalog:         %s\n", r.Catalog)
	fmt.Fprintf(out, "State directory: %s\n", r.StateDir)
	fmt.Fprintf(out, "Servers:         %d configured, %d running\n", r.Configured, r.Running)
	if r.GlobalShortcut != "" {
		fmt.Fprintf(out, "Global shortcut: %s\n", r.GlobalShortcut)
	}

	fmt.Fprintln(out, "Toolchains:")
	for _, tc := range r.Toolchains {
		if tc.Installed {
			fmt.Fprintf(out, "  %-7s %s (%s)\n", tc.Name, tc.Version, tc.Path)
		} else {
			fmt.Fprintf(out, "  %-7s not found, see %s\n", tc.Name, tc.InstallURL)
		}
	}

	if format == formatting.FormatWide {
		printSyncSummary(out, r.Sync)
	}
	return nil
}

// printSyncSummary shows status query outcomes, including servers whose
// status could not be determined.
func printSyncSummary(out io.Writer, s reconciler.SyncMetricsSummary) {
	fmt.Fprintf(out, "Status syncs:    %d (%d failed)\n", s.TotalSyncs, s.TotalSyncFailures)
	fmt.Fprintf(out, "Status queries:  %d (%d failed, %.0f%%)\n", s.TotalQueries, s.TotalQueryFailures, s.QueryFailureRate*100)
	for _, sv := range s.Servers {
		if sv.QueryFailures == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s: %d of %d queries failed, last: %s\n", sv.Name, sv.QueryFailures, sv.QueryAttempts, sv.LastError)
	}
}

func existence(ok bool) string {
	if ok {
		return "found"
	}
	return "not found"
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage the host application's configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List installed servers and the global shortcut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeck(cmd.Context())
			if err != nil {
				return err
			}
			return printConfigured(cmd.OutOrStdout(), d.ctrl.View())
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the path of the host configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := hostConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore-backup",
		Short: "Replace the host configuration with the backup taken before the last change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := hostConfigPath()
			if err != nil {
				return err
			}
			store := hostconfig.New(path)
			if err := store.RestoreBackup(cmd.Context()); err != nil {
				return err
			}
			notice(cmd.OutOrStdout(), "Restored %s from %s", store.Path(), store.BackupPath())
			return nil
		},
	}

	configCmd.AddCommand(showCmd, pathCmd, restoreCmd)
	configCmd.Args = cobra.NoArgs
	configCmd.RunE = showCmd.RunE
	return configCmd
}

func printConfigured(out io.Writer, v view.View) error {
	f, err := formatter(out)
	if err != nil {
		return err
	}
	format, _ := formatting.ParseFormat(flags.OutputFormat)
	if format == formatting.FormatJSON || format == formatting.FormatYAML {
		return f.Object(struct {
			GlobalShortcut string           `json:"globalShortcut"`
			Servers        []view.ServerRow `json:"servers"`
		}{v.GlobalShortcut, v.Configured})
	}
	if v.GlobalShortcut != "" {
		notice(out, "Global shortcut: %s", v.GlobalShortcut)
	}
	return f.Servers(v.Configured)
}

// hostConfigPath resolves the host configuration path without building
// the whole engine.
func hostConfigPath() (string, error) {
	cfg, err := loadSettings()
	if err != nil {
		return "", err
	}
	return cfg.HostConfigPath, nil
}

func newAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List catalog templates and whether they can be installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeck(cmd.Context())
			if err != nil {
				return err
			}
			f, err := formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return f.Templates(d.ctrl.View().Available)
		},
	}
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAvailableCmd())
}
