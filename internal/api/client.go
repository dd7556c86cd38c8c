// Package api lists folders of the Rescale platform through its paged REST
// API, with retries and client-side request rate limiting.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	nethttp "net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/logging"
	"github.com/rescale/rescale-browse/internal/models"
	"github.com/rescale/rescale-browse/internal/producer"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	PageSize          int
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	Logger            *logging.Logger
}

// Client represents the Rescale API client
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	pageSize   int
	logger     *logging.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("API base URL is empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = constants.DefaultRequestBurst
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = constants.DefaultPageSize
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = constants.MaxRetries
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = constants.RetryInitialDelay
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = constants.RetryMaxDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Component("api")

	// Wrap with retry logic
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		pageSize:   cfg.PageSize,
		logger:     logger,
	}, nil
}

// doRequest performs an authenticated GET after waiting for the rate limiter.
// target is either an API path or an absolute URL returned by the API.
func (c *Client) doRequest(ctx context.Context, target string) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	u := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		u = c.baseURL + target
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// folderEntry is one element of a folder contents page.
type folderEntry struct {
	Type string `json:"type"` // "file" or "folder"
	Item struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		DecryptedSize int64     `json:"decryptedSize"`
		DateUploaded  time.Time `json:"dateUploaded"`
	} `json:"item"`
}

type folderPage struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []folderEntry `json:"results"`
}

// FolderPage fetches one page of a folder's contents. An empty cursor
// requests the first page; otherwise cursor is the next URL of the previous
// page.
func (c *Client) FolderPage(ctx context.Context, folderID, cursor string) (producer.Page[models.FileItem], error) {
	target := cursor
	if target == "" {
		target = fmt.Sprintf("/api/v3/folders/%s/contents/?page_size=%d", url.PathEscape(folderID), c.pageSize)
	}

	resp, err := c.doRequest(ctx, target)
	if err != nil {
		return producer.Page[models.FileItem]{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return producer.Page[models.FileItem]{}, newStatusError(resp.StatusCode, body)
	}

	var result folderPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return producer.Page[models.FileItem]{}, fmt.Errorf("failed to decode response: %w", err)
	}

	page := producer.Page[models.FileItem]{Items: make([]models.FileItem, 0, len(result.Results))}
	for _, entry := range result.Results {
		if entry.Item.ID == "" {
			continue
		}
		item := models.FileItem{
			ID:      entry.Item.ID,
			Name:    entry.Item.Name,
			Path:    path.Clean(entry.Item.Name),
			ModTime: entry.Item.DateUploaded,
			Source:  models.SourceRemote,
		}
		switch entry.Type {
		case "folder":
			item.IsFolder = true
		case "file":
			item.Size = entry.Item.DecryptedSize
		default:
			continue
		}
		page.Items = append(page.Items, item)
	}

	if result.Next != nil && *result.Next != "" {
		page.Next = *result.Next
		page.HasMore = true
	}

	c.logger.Debug().
		Str("folder_id", folderID).
		Int("items", len(page.Items)).
		Bool("has_more", page.HasMore).
		Msg("Fetched folder page")

	return page, nil
}

// ListFolder streams a folder's files and subfolders, following the API's
// next links page by page.
func (c *Client) ListFolder(ctx context.Context, folderID string) iter.Seq2[models.FileItem, error] {
	return producer.Paged(ctx, func(ctx context.Context, cursor string) (producer.Page[models.FileItem], error) {
		page, err := c.FolderPage(ctx, folderID, cursor)
		if err != nil {
			return page, fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}
		return page, nil
	})
}
