package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rescale-browse configuration",
		Long: `Configuration management commands for rescale-browse.

Commands:
  init  - Write a browse.conf with default settings
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultBrowseConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write browse.conf with default settings, ready to edit.

With --api-key the key is saved to the token file read by the 'remote'
command, ~/.config/rescale/token, with owner-only permissions.

Use --force to overwrite an existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := configPath()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			if err := config.SaveBrowseConfig(config.NewBrowseConfig(), path); err != nil {
				return err
			}
			GetLogger().Debug().Str("path", path).Msg("Configuration saved")
			fmt.Fprintf(out, "Configuration saved to: %s\n", path)

			if apiKey != "" {
				tokenPath := config.DefaultTokenPath()
				if err := config.WriteTokenFile(tokenPath, apiKey); err != nil {
					return err
				}
				fmt.Fprintf(out, "API token saved to: %s\n", tokenPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Rescale API key to save in the token file")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration: browse.conf values, with defaults
for anything the file does not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "[collection]")
			fmt.Fprintf(out, "structural_cadence_ms = %d\n", cfg.Collection.StructuralCadenceMs)
			fmt.Fprintf(out, "count_cadence_ms      = %d\n", cfg.Collection.CountCadenceMs)
			fmt.Fprintf(out, "sort_threshold        = %d\n", cfg.Collection.SortThreshold)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "[listing]")
			fmt.Fprintf(out, "include_hidden      = %t\n", cfg.Listing.IncludeHidden)
			fmt.Fprintf(out, "skip_hidden_dirs    = %t\n", cfg.Listing.SkipHiddenDirs)
			fmt.Fprintf(out, "page_size           = %d\n", cfg.Listing.PageSize)
			fmt.Fprintf(out, "requests_per_second = %g\n", cfg.Listing.RequestsPerSecond)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "[remote]")
			fmt.Fprintf(out, "api_base_url = %s\n", cfg.Remote.APIBaseURL)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "[logging]")
			fmt.Fprintf(out, "level = %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "file  = %s\n", cfg.Logging.File)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
