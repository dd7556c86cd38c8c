// Package azure lists blobs of an Azure storage container as file list items.
package azure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ErrNoAccount is returned when neither an account name nor a service URL is set.
var ErrNoAccount = errors.New("azure storage account name not set")

// Config selects the storage account and how to authenticate.
// A shared key takes precedence over a SAS token.
type Config struct {
	AccountName string
	AccountKey  string
	SASToken    string

	// ServiceURL overrides the public endpoint, e.g. for Azurite.
	ServiceURL string
}

// serviceURL returns the blob service URL, with the SAS token appended when
// no shared key is used.
func serviceURL(cfg Config) (string, error) {
	u := cfg.ServiceURL
	if u == "" {
		if cfg.AccountName == "" {
			return "", ErrNoAccount
		}
		u = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	if cfg.AccountKey == "" && cfg.SASToken != "" && !strings.Contains(u, "?") {
		u += "?" + strings.TrimPrefix(cfg.SASToken, "?")
	}
	return u, nil
}

// NewClient creates a blob service client from cfg.
func NewClient(cfg Config) (*azblob.Client, error) {
	u, err := serviceURL(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("invalid shared key: %w", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(u, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client: %w", err)
		}
		return client, nil
	}

	client, err := azblob.NewClientWithNoCredential(u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return client, nil
}
