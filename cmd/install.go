package cmd

import (
	"fmt"
	"strings"

	"mcpdeck/internal/api"
	"mcpdeck/internal/picker"

	"github.com/spf13/cobra"
)

var (
	installPath        string
	installPick        bool
	installEnv         []string
	installPrompt      bool
	installRestartHost bool

	uninstallRestartHost bool
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <template>",
		Short: "Install a catalog template into the host configuration",
		Long: `Installs a template from the catalog as a server entry of the host
application. Templates that take a directory need --path or --pick; templates
that declare environment variables without defaults need --env or --prompt.

The host application only loads new servers after a restart; pass
--restart-host to do that right away.`,
		Example: `  mcpdeck install filesystem --path ~/Documents
  mcpdeck install brave-search --env BRAVE_API_KEY=...
  mcpdeck install postgres --prompt`,
		Args: cobra.ExactArgs(1),
		RunE: runInstall,
	}
	cmd.Flags().StringVar(&installPath, "path", "", "Directory for templates that take one")
	cmd.Flags().BoolVar(&installPick, "pick", false, "Choose the directory interactively")
	cmd.Flags().StringArrayVarP(&installEnv, "env", "e", nil, "Environment value as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&installPrompt, "prompt", false, "Ask for each environment value interactively")
	cmd.Flags().BoolVar(&installRestartHost, "restart-host", false, "Restart the host application afterwards")
	cmd.MarkFlagsMutuallyExclusive("path", "pick")
	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]
	out := cmd.OutOrStdout()

	d, err := newDeck(ctx)
	if err != nil {
		return err
	}
	tpl, err := d.catalog.Get(ctx, name)
	if err != nil {
		return err
	}

	env, err := parseEnvPairs(name, installEnv)
	if err != nil {
		return err
	}

	path := installPath
	if installPick && tpl.RequiresFilePath {
		dir, ok, err := picker.New().PickDirectory(ctx)
		if err != nil {
			return err
		}
		if !ok {
			notice(out, "Install of %s cancelled", name)
			return nil
		}
		path = dir
	}

	if installPrompt && len(tpl.Env) > 0 {
		current := make(map[string]string, len(tpl.Env))
		for k, v := range tpl.Env {
			current[k] = v
		}
		for k, v := range env {
			current[k] = v
		}
		values, ok, err := picker.New().PromptEnv(ctx, tpl.EnvKeys(), current)
		if err != nil {
			return err
		}
		if !ok {
			notice(out, "Install of %s cancelled", name)
			return nil
		}
		env = values
	}

	err = progress(fmt.Sprintf("Installing %s...", name), func() error {
		return d.ctrl.InstallTemplate(ctx, name, path, env)
	})
	if err != nil {
		return err
	}

	notice(out, "Installed %s", name)
	if err := printServer(out, d.ctrl.View(), name); err != nil {
		return err
	}
	return restartHostIfRequested(cmd, d, installRestartHost)
}

func newUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall <name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Remove a server from the host configuration",
		Long: `Removes the server entry from the host configuration. A running server is
stopped first; if it cannot be stopped the entry is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			d, err := newDeck(ctx)
			if err != nil {
				return err
			}
			err = progress(fmt.Sprintf("Uninstalling %s...", name), func() error {
				return d.ctrl.Uninstall(ctx, name)
			})
			if err != nil {
				return err
			}
			notice(cmd.OutOrStdout(), "Uninstalled %s", name)
			return restartHostIfRequested(cmd, d, uninstallRestartHost)
		},
	}
	cmd.Flags().BoolVar(&uninstallRestartHost, "restart-host", false, "Restart the host application afterwards")
	return cmd
}

// parseEnvPairs turns KEY=VALUE arguments into a draft for name.
func parseEnvPairs(name string, pairs []string) (api.EnvDraft, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(api.EnvDraft, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &api.ValidationError{Name: name, Message: fmt.Sprintf("invalid environment value %q, expected KEY=VALUE", pair)}
		}
		env[key] = value
	}
	return env, nil
}

func init() {
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUninstallCmd())
}
