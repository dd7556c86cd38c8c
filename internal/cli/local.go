package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/localfs"
	"github.com/rescale/rescale-browse/internal/models"
	"github.com/rescale/rescale-browse/internal/pathutil"
)

// dirArg resolves the optional directory argument, defaulting to the working directory.
func dirArg(args []string) (string, error) {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	return pathutil.ResolveAbsolutePath(dir)
}

// newLocalCmd creates the 'local' command.
func newLocalCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "local [dir]",
		Short: "List a local directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args)
			if err != nil {
				return err
			}
			opts := localfs.ListOptions{IncludeHidden: all || getConfig().Listing.IncludeHidden}
			return runListing(cmd, listing{
				source:   models.SourceLocal,
				folderID: dir,
				path:     dir,
				items:    localfs.List(cmd.Context(), dir, opts),
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden files")
	return cmd
}

// newWalkCmd creates the 'walk' command.
func newWalkCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "walk [dir]",
		Short: "List a local directory tree recursively",
		Long: `List every file and folder under a directory, depth first.

Hidden entries are skipped unless --all is given or include_hidden is set in
browse.conf. With skip_hidden_dirs (the default) hidden directories are not
descended into at all.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args)
			if err != nil {
				return err
			}
			cfg := getConfig().Listing
			opts := localfs.WalkOptions{
				IncludeHidden:  all || cfg.IncludeHidden,
				SkipHiddenDirs: cfg.SkipHiddenDirs,
			}
			return runListing(cmd, listing{
				source:   models.SourceLocal,
				folderID: dir,
				path:     dir,
				items:    localfs.Enumerate(cmd.Context(), dir, opts),
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden files and directories")
	return cmd
}

// newWatchCmd creates the 'watch' command.
func newWatchCmd() *cobra.Command {
	var (
		all     bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "List a directory and keep adding entries as they are created",
		Long: `List a directory, then keep watching it: new files and folders are
inserted into the list as they appear. Stop with Ctrl+C or --timeout; the
list collected so far is printed either way.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
				cmd.SetContext(ctx)
			}

			opts := localfs.WatchOptions{
				ListOptions:   localfs.ListOptions{IncludeHidden: all || getConfig().Listing.IncludeHidden},
				ExistingFirst: true,
			}
			return runListing(cmd, listing{
				source:   models.SourceLocal,
				folderID: dir,
				path:     dir,
				items:    localfs.Watch(ctx, dir, opts),
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden files")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop watching after this long (0 = until interrupted)")
	return cmd
}
