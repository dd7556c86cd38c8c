package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/cloud/providers"
	"github.com/rescale/rescale-browse/internal/models"
)

func prefixArg(args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	return ""
}

// newS3Cmd creates the 's3' command.
func newS3Cmd() *cobra.Command {
	var (
		cfg       providers.Config
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "s3 <bucket> [prefix]",
		Short: "List an S3 bucket",
		Long: `List the objects and common prefixes under a prefix of an S3 bucket.

Credentials come from the standard AWS chain (environment, shared config,
instance role) unless --access-key and --secret-key are given. --endpoint and
--path-style target S3-compatible stores.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Container = args[0]
			cfg.PageSize = getConfig().Listing.PageSize
			cfg.Recursive = recursive

			lister, err := providers.NewLister(cmd.Context(), "s3", cfg)
			if err != nil {
				return err
			}
			prefix := prefixArg(args)
			return runListing(cmd, listing{
				source:   models.SourceS3,
				folderID: prefix,
				path:     fmt.Sprintf("s3://%s/%s", cfg.Container, prefix),
				items:    lister.List(cmd.Context(), prefix),
			})
		},
	}

	cmd.Flags().StringVar(&cfg.S3.Region, "region", "", "AWS region (default from the AWS config chain)")
	cmd.Flags().StringVar(&cfg.S3.Endpoint, "endpoint", "", "Custom endpoint URL for S3-compatible stores")
	cmd.Flags().BoolVar(&cfg.S3.UsePathStyle, "path-style", false, "Use path-style addressing")
	cmd.Flags().StringVar(&cfg.S3.AccessKeyID, "access-key", "", "Access key ID")
	cmd.Flags().StringVar(&cfg.S3.SecretAccessKey, "secret-key", "", "Secret access key")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "List every object under the prefix instead of one level")
	return cmd
}

// newAzureCmd creates the 'azure' command.
func newAzureCmd() *cobra.Command {
	var cfg providers.Config

	cmd := &cobra.Command{
		Use:   "azure <container> [prefix]",
		Short: "List an Azure Blob Storage container",
		Long: `List the blobs and virtual directories under a prefix of a container.

Authenticate with --account-key (or AZURE_STORAGE_KEY) or with a SAS token
(--sas or AZURE_STORAGE_SAS_TOKEN).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Container = args[0]
			cfg.PageSize = getConfig().Listing.PageSize
			if cfg.Azure.AccountName == "" {
				cfg.Azure.AccountName = os.Getenv("AZURE_STORAGE_ACCOUNT")
			}
			if cfg.Azure.AccountKey == "" {
				cfg.Azure.AccountKey = os.Getenv("AZURE_STORAGE_KEY")
			}
			if cfg.Azure.SASToken == "" {
				cfg.Azure.SASToken = os.Getenv("AZURE_STORAGE_SAS_TOKEN")
			}

			lister, err := providers.NewLister(cmd.Context(), "azure", cfg)
			if err != nil {
				return err
			}
			prefix := prefixArg(args)
			return runListing(cmd, listing{
				source:   models.SourceAzure,
				folderID: prefix,
				path:     fmt.Sprintf("%s/%s/%s", cfg.Azure.AccountName, cfg.Container, prefix),
				items:    lister.List(cmd.Context(), prefix),
			})
		},
	}

	cmd.Flags().StringVar(&cfg.Azure.AccountName, "account", "", "Storage account name (or AZURE_STORAGE_ACCOUNT)")
	cmd.Flags().StringVar(&cfg.Azure.AccountKey, "account-key", "", "Storage account key")
	cmd.Flags().StringVar(&cfg.Azure.SASToken, "sas", "", "SAS token")
	cmd.Flags().StringVar(&cfg.Azure.ServiceURL, "service-url", "", "Blob service URL override (e.g. Azurite)")
	return cmd
}
