package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/configs"
	"github.com/Aman-CERP/pantry/internal/config"
	"github.com/Aman-CERP/pantry/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage pantry configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config ($XDG_CONFIG_HOME/pantry/config.yaml)
  3. Project config (.pantry.yaml in the working directory)
  4. Environment variables (PANTRY_*)`,
		Example: `  # Write the user config with defaults
  pantry config init

  # Show effective configuration
  pantry config show

  # Print user config path and backups
  pantry config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Create the user configuration file from a commented template
holding the default values.

With --force an existing file is backed up, then rewritten with its own
values plus defaults for any settings it lacks.`,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and rewrite an existing configuration")
	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out, err := newWriter(cmd)
	if err != nil {
		return err
	}
	path := config.GetUserConfigPath()

	if config.UserConfigExists() && !force {
		out.Warning("User configuration already exists")
		out.Status("", "Location: "+path)
		out.Status("", "Use --force to rewrite it (a backup is kept)")
		return nil
	}

	var backupPath string
	if config.UserConfigExists() {
		backupPath, err = config.Backup(path)
		if err != nil {
			return err
		}
		cfg, err := config.LoadUserConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("existing configuration is invalid, fix or remove %s: %w", path, err)
		}
		if err := cfg.WriteYAML(path); err != nil {
			return err
		}
	} else if err := config.WriteTemplate(path, configs.UserConfigTemplate); err != nil {
		return err
	}

	out.Success("Wrote user configuration")
	out.Status("", "Location: "+path)
	if backupPath != "" {
		out.Status("", "Backup: "+backupPath)
	}
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration",
		Example: `  pantry config show
  pantry config show --source user
  pantry config show --format json`,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}

			var cfg *config.Config
			switch source {
			case "merged", "":
				cfg, err = config.Load(configDir)
			case "user":
				cfg, err = config.LoadUserConfig()
			case "defaults":
				cfg = config.NewConfig()
			default:
				return fmt.Errorf("unknown source %q (use merged, user or defaults)", source)
			}
			if err != nil {
				return err
			}

			if out.Format() == output.FormatJSON {
				return out.Value(cfg)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return err
		},
	}

	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, defaults")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the user config path and its backups",
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)

			backups, err := config.ListBackups(path)
			if err != nil {
				return err
			}
			for _, b := range backups {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  backup: "+b)
			}
			return nil
		},
	}
}
