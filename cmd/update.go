package cmd

import (
	"fmt"
	"sort"
	"strings"

	"mcpdeck/internal/api"
	"mcpdeck/internal/lifecycle"
	"mcpdeck/internal/picker"
	"mcpdeck/internal/view"

	"github.com/spf13/cobra"
)

var (
	pathPick  bool
	envPrompt bool
)

func newEnvCmd() *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Change the environment of an installed server",
	}

	setCmd := &cobra.Command{
		Use:   "set <name> [KEY=VALUE]...",
		Short: "Set environment values of an installed server",
		Long: `Merges the given values into the server's env block. Empty values are
ignored so an existing secret is never blanked by accident; use env unset to
remove a key. With --prompt each declared key is asked for interactively.`,
		Example: `  mcpdeck env set brave-search BRAVE_API_KEY=...
  mcpdeck env set postgres --prompt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			out := cmd.OutOrStdout()

			values, err := parseEnvPairs(name, args[1:])
			if err != nil {
				return err
			}
			d, err := newDeck(ctx)
			if err != nil {
				return err
			}
			row, ok := findServer(d.ctrl.View(), name)
			if !ok {
				return api.NewServerNotFoundError(name)
			}

			if envPrompt {
				keys := envKeysFor(d, row, values)
				prompted, ok, err := picker.New().PromptEnv(ctx, keys, mergeMaps(row.Env, values))
				if err != nil {
					return err
				}
				if !ok {
					notice(out, "Environment of %s unchanged", name)
					return nil
				}
				values = prompted
			} else if len(values) == 0 {
				return &api.ValidationError{Name: name, Message: "no KEY=VALUE pairs given"}
			}

			if err := d.ctrl.SetEnv(ctx, name, values); err != nil {
				return err
			}
			notice(out, "Updated environment of %s", name)
			if err := printServer(out, d.ctrl.View(), name); err != nil {
				return err
			}
			return restartHostIfRequested(cmd, d, false)
		},
	}
	setCmd.Flags().BoolVar(&envPrompt, "prompt", false, "Ask for each environment value interactively")

	unsetCmd := &cobra.Command{
		Use:   "unset <name> <KEY>...",
		Short: "Remove environment keys from an installed server",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			d, err := newDeck(ctx)
			if err != nil {
				return err
			}
			row, ok := findServer(d.ctrl.View(), name)
			if !ok {
				return api.NewServerNotFoundError(name)
			}

			env := make(map[string]string, len(row.Env))
			for k, v := range row.Env {
				env[k] = v
			}
			for _, key := range args[1:] {
				delete(env, key)
			}
			upd := lifecycle.EntryUpdate{Env: &env}
			if len(env) == 0 {
				upd = lifecycle.EntryUpdate{ClearEnv: true}
			}
			if err := d.ctrl.UpdateEntry(ctx, name, upd); err != nil {
				return err
			}
			notice(cmd.OutOrStdout(), "Removed %s from %s", strings.Join(args[1:], ", "), name)
			return printServer(cmd.OutOrStdout(), d.ctrl.View(), name)
		},
	}

	envCmd.AddCommand(setCmd, unsetCmd)
	return envCmd
}

func newPathCmd() *cobra.Command {
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Change the directory of an installed server",
	}

	setCmd := &cobra.Command{
		Use:   "set <name> [DIR]",
		Short: "Replace the directory argument of an installed server",
		Long: `Replaces the directory argument of a server whose template takes one.
The running process keeps its old directory until it is restarted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			out := cmd.OutOrStdout()

			var dir string
			switch {
			case len(args) == 2 && pathPick:
				return &api.ValidationError{Name: name, Message: "pass either a directory or --pick, not both"}
			case len(args) == 2:
				dir = args[1]
			case pathPick:
				picked, ok, err := picker.New().PickDirectory(ctx)
				if err != nil {
					return err
				}
				if !ok {
					notice(out, "Directory of %s unchanged", name)
					return nil
				}
				dir = picked
			default:
				return &api.ValidationError{Name: name, MissingPath: true}
			}

			d, err := newDeck(ctx)
			if err != nil {
				return err
			}
			if err := d.ctrl.UpdatePath(ctx, name, dir); err != nil {
				return err
			}
			notice(out, "Updated directory of %s", name)
			if err := printServer(out, d.ctrl.View(), name); err != nil {
				return err
			}
			return restartHostIfRequested(cmd, d, false)
		},
	}
	setCmd.Flags().BoolVar(&pathPick, "pick", false, "Choose the directory interactively")

	pathCmd.AddCommand(setCmd)
	return pathCmd
}

func newShortcutCmd() *cobra.Command {
	shortcutCmd := &cobra.Command{
		Use:   "shortcut",
		Short: "Show or change the host application's global shortcut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeck(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.ctrl.View().GlobalShortcut)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:     "set <value>",
		Short:   "Set the global shortcut",
		Example: `  mcpdeck shortcut set "Ctrl+Space"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := newDeck(ctx)
			if err != nil {
				return err
			}
			if err := d.ctrl.SetGlobalShortcut(ctx, args[0]); err != nil {
				return err
			}
			notice(cmd.OutOrStdout(), "Global shortcut set to %s", args[0])
			return restartHostIfRequested(cmd, d, false)
		},
	}

	shortcutCmd.AddCommand(setCmd)
	return shortcutCmd
}

func findServer(v view.View, name string) (view.ServerRow, bool) {
	for _, row := range v.Configured {
		if row.Name == name {
			return row, true
		}
	}
	return view.ServerRow{}, false
}

// envKeysFor lists the keys to prompt for: the template's declared keys,
// the entry's existing keys and any given on the command line.
func envKeysFor(d *deck, row view.ServerRow, given map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, t := range d.ctrl.View().Available {
		if t.Name == row.Name {
			for _, k := range t.EnvKeys {
				add(k)
			}
		}
	}
	for _, k := range sortedKeys(row.Env) {
		add(k)
	}
	for _, k := range sortedKeys(given) {
		add(k)
	}
	return keys
}

func mergeMaps(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(newEnvCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newShortcutCmd())
}
