package cli

import (
	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/api"
	"github.com/rescale/rescale-browse/internal/config"
	"github.com/rescale/rescale-browse/internal/models"
)

// newRemoteCmd creates the 'remote' command.
func newRemoteCmd() *cobra.Command {
	var apiKey, apiURL string

	cmd := &cobra.Command{
		Use:   "remote <folder-id>",
		Short: "List a folder in Rescale cloud storage",
		Long: `List the files and subfolders of a Rescale folder.

The API key is taken from --api-key, then the token file next to
browse.conf, then RESCALE_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()

			key, source := config.ResolveAPIKeySource(apiKey)
			if key == "" {
				return config.ErrNoAPIKey
			}
			GetLogger().Debug().Str("source", source).Msg("Resolved API key")

			if apiURL == "" {
				apiURL = cfg.Remote.APIBaseURL
			}
			client, err := api.NewClient(api.Config{
				BaseURL:           apiURL,
				APIKey:            key,
				RequestsPerSecond: cfg.Listing.RequestsPerSecond,
				PageSize:          cfg.Listing.PageSize,
				Logger:            GetLogger(),
			})
			if err != nil {
				return err
			}

			folderID := args[0]
			return runListing(cmd, listing{
				source:   models.SourceRemote,
				folderID: folderID,
				path:     folderID,
				items:    client.ListFolder(cmd.Context(), folderID),
			})
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Rescale API key")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Rescale API base URL (overrides browse.conf)")
	return cmd
}
