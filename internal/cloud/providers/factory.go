// Package providers creates object store listers by storage type.
package providers

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rescale/rescale-browse/internal/cloud/providers/azure"
	"github.com/rescale/rescale-browse/internal/cloud/providers/s3"
	"github.com/rescale/rescale-browse/internal/models"
)

// Lister streams the entries under a prefix of a bucket or container.
type Lister interface {
	List(ctx context.Context, prefix string) iter.Seq2[models.FileItem, error]
}

var (
	_ Lister = (*s3.Lister)(nil)
	_ Lister = (*azure.Lister)(nil)
)

// Config holds the settings of every supported store; only the section
// matching the storage type is read.
type Config struct {
	Container string // S3 bucket or Azure container
	PageSize  int
	Recursive bool // S3 only
	S3        s3.Config
	Azure     azure.Config
}

// NewLister creates a Lister for storageType: "s3"/"S3Storage" or
// "azure"/"AzureStorage".
func NewLister(ctx context.Context, storageType string, cfg Config) (Lister, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("bucket or container name is required")
	}

	switch strings.ToLower(storageType) {
	case "s3", "s3storage":
		client, err := s3.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		l := s3.NewLister(client, cfg.Container, cfg.PageSize)
		l.Recursive = cfg.Recursive
		return l, nil
	case "azure", "azurestorage":
		client, err := azure.NewClient(cfg.Azure)
		if err != nil {
			return nil, err
		}
		return azure.NewLister(client, cfg.Container, cfg.PageSize), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
