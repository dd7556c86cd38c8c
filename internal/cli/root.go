// Package cli provides the command-line interface for rescale-browse.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/config"
	"github.com/rescale/rescale-browse/internal/logging"
	"github.com/rescale/rescale-browse/internal/models"
	"github.com/rescale/rescale-browse/internal/version"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	sortBy     string
	descending bool
	showEvents bool

	// Listing filters
	includeFlag string
	excludeFlag string
	searchFlag  []string
	matchFlag   string

	// Loaded in PersistentPreRunE
	browseCfg *config.BrowseConfig

	// Global logger
	logger *logging.Logger
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rescale-browse",
		Short: "Browse local folders, object stores and Rescale folders",
		Long: `Rescale Browse ` + version.Version + ` - Built: ` + version.BuildTime + `
Lists files from a local directory, an S3 bucket, an Azure container or a
Rescale folder into a sorted, live-updating list and prints it as a table.

Listings stream: items appear as they arrive and Ctrl+C stops a listing
early, keeping what was received so far.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBrowseConfig(cfgFile)
			if err != nil {
				return err
			}
			browseCfg = cfg
			logger, err = newCLILogger(cfg)
			return err
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default ~/.config/rescale/browse.conf)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().StringVarP(&sortBy, "sort", "s", models.SortByName, "Sort key: name, size, date or type")
	rootCmd.PersistentFlags().BoolVar(&descending, "desc", false, "Sort in descending order")
	rootCmd.PersistentFlags().BoolVar(&showEvents, "events", false, "Print every list notification to stderr")
	rootCmd.PersistentFlags().StringVar(&includeFlag, "include", "", "Only list names matching these comma-separated globs (e.g. \"*.dat,*.log\")")
	rootCmd.PersistentFlags().StringVar(&excludeFlag, "exclude", "", "Skip names matching these comma-separated globs")
	rootCmd.PersistentFlags().StringSliceVar(&searchFlag, "search", nil, "Only list names containing all of these terms (case-insensitive)")
	rootCmd.PersistentFlags().StringVar(&matchFlag, "match", "", "Only list relative paths matching these globs; ** spans directories")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

func newCLILogger(cfg *config.BrowseConfig) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = zerolog.DebugLevel
	}
	logging.SetGlobalLevel(level)

	file := config.ResolveLogFile(cfg.Logging.File)
	if file == "" {
		return logging.NewDefaultCLILogger(), nil
	}
	if filepath.Dir(file) == config.LogDirectory() {
		if err := config.EnsureLogDirectory(); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return logging.NewFileLogger(logging.FileConfig{Path: file}, verbose), nil
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop to handle multiple signals (e.g., user pressing Ctrl+C multiple times)
	go func() {
		for sig := range sigChan {
			// A closed channel yields nil and ends the loop
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping listing...\n", sig)
				cancel()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(ctx)

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLocalCmd())
	rootCmd.AddCommand(newWalkCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newS3Cmd())
	rootCmd.AddCommand(newAzureCmd())
	rootCmd.AddCommand(newRemoteCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// getConfig returns the loaded configuration, or defaults before PersistentPreRunE.
func getConfig() *config.BrowseConfig {
	if browseCfg == nil {
		browseCfg = config.NewBrowseConfig()
	}
	return browseCfg
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rescale-browse %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}
