// Package config provides configuration management for Rescale Browse.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/rescale/rescale-browse/internal/constants"
)

// BrowseConfig represents the browse.conf configuration.
//
// Config file location:
//   - Windows: %APPDATA%\Rescale\Browse\browse.conf
//   - Unix: ~/.config/rescale/browse.conf
//
// INI format:
//
//	[collection]
//	structural_cadence_ms = 250
//	count_cadence_ms = 50
//	sort_threshold = 250
//
//	[listing]
//	include_hidden = false
//	skip_hidden_dirs = true
//	page_size = 200
//	requests_per_second = 5
//
//	[remote]
//	api_base_url = https://platform.rescale.com
//
//	[logging]
//	level = info
//	file =
type BrowseConfig struct {
	Collection CollectionConfig
	Listing    ListingConfig
	Remote     RemoteConfig
	Logging    LoggingConfig
}

// CollectionConfig tunes the observable collection.
type CollectionConfig struct {
	// StructuralCadenceMs is the minimum interval between structural flushes.
	// 0 flushes after every item. Maximum: 10000, Default: 250
	StructuralCadenceMs int `ini:"structural_cadence_ms"`

	// CountCadenceMs is the minimum interval between count-changed signals.
	// 0 signals after every item. Maximum: 10000, Default: 50
	CountCadenceMs int `ini:"count_cadence_ms"`

	// SortThreshold is the partition size above which the sort fans out.
	// Minimum: 16, Default: 250
	SortThreshold int `ini:"sort_threshold"`
}

// ListingConfig configures the item producers.
type ListingConfig struct {
	// IncludeHidden lists dot-files and dot-directories. Default: false
	IncludeHidden bool `ini:"include_hidden"`

	// SkipHiddenDirs does not descend into hidden directories when walking.
	// Only meaningful when IncludeHidden is false. Default: true
	SkipHiddenDirs bool `ini:"skip_hidden_dirs"`

	// PageSize is the number of items requested per remote page.
	// Minimum: 1, Maximum: 1000, Default: 200
	PageSize int `ini:"page_size"`

	// RequestsPerSecond limits the HTTP folder API. Must be > 0. Default: 5
	RequestsPerSecond float64 `ini:"requests_per_second"`
}

// RemoteConfig configures the Rescale folder API.
type RemoteConfig struct {
	// APIBaseURL is the platform URL. Default: https://platform.rescale.com
	APIBaseURL string `ini:"api_base_url"`
}

// LoggingConfig configures logging output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `ini:"level"`

	// File is a log file path; empty keeps console-only logging.
	File string `ini:"file"`
}

// BrowseConfig validation errors
var (
	ErrInvalidStructuralCadence = errors.New("structural_cadence_ms must be between 0 and 10000")
	ErrInvalidCountCadence      = errors.New("count_cadence_ms must be between 0 and 10000")
	ErrInvalidSortThreshold     = errors.New("sort_threshold must be at least 16")
	ErrInvalidPageSize          = errors.New("page_size must be between 1 and 1000")
	ErrInvalidRequestRate       = errors.New("requests_per_second must be greater than 0")
	ErrInvalidLogLevel          = errors.New("level must be one of debug, info, warn, error")
	ErrInvalidAPIBaseURL        = errors.New("api_base_url must start with http:// or https://")
)

// DefaultAPIBaseURL is the public Rescale platform.
const DefaultAPIBaseURL = "https://platform.rescale.com"

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// DefaultBrowseConfigPath returns the default path for the browse.conf file.
func DefaultBrowseConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "Rescale", "Browse")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "rescale")
	}

	return filepath.Join(configDir, "browse.conf"), nil
}

// NewBrowseConfig creates a new BrowseConfig with default values.
func NewBrowseConfig() *BrowseConfig {
	return &BrowseConfig{
		Collection: CollectionConfig{
			StructuralCadenceMs: int(constants.StructuralCadence / time.Millisecond),
			CountCadenceMs:      int(constants.CountCadence / time.Millisecond),
			SortThreshold:       constants.SortParallelThreshold,
		},
		Listing: ListingConfig{
			IncludeHidden:     false,
			SkipHiddenDirs:    true,
			PageSize:          constants.DefaultPageSize,
			RequestsPerSecond: constants.DefaultRequestsPerSecond,
		},
		Remote: RemoteConfig{
			APIBaseURL: DefaultAPIBaseURL,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadBrowseConfig loads configuration from the browse.conf file.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadBrowseConfig(path string) (*BrowseConfig, error) {
	cfg := NewBrowseConfig()

	if path == "" {
		var err error
		path, err = DefaultBrowseConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load browse.conf: %w", err)
	}

	collectionSection := iniFile.Section("collection")
	cfg.Collection.StructuralCadenceMs = collectionSection.Key("structural_cadence_ms").MustInt(cfg.Collection.StructuralCadenceMs)
	cfg.Collection.CountCadenceMs = collectionSection.Key("count_cadence_ms").MustInt(cfg.Collection.CountCadenceMs)
	cfg.Collection.SortThreshold = collectionSection.Key("sort_threshold").MustInt(cfg.Collection.SortThreshold)

	listingSection := iniFile.Section("listing")
	cfg.Listing.IncludeHidden = listingSection.Key("include_hidden").MustBool(false)
	cfg.Listing.SkipHiddenDirs = listingSection.Key("skip_hidden_dirs").MustBool(true)
	cfg.Listing.PageSize = listingSection.Key("page_size").MustInt(cfg.Listing.PageSize)
	cfg.Listing.RequestsPerSecond = listingSection.Key("requests_per_second").MustFloat64(cfg.Listing.RequestsPerSecond)

	remoteSection := iniFile.Section("remote")
	cfg.Remote.APIBaseURL = strings.TrimSpace(remoteSection.Key("api_base_url").MustString(cfg.Remote.APIBaseURL))

	loggingSection := iniFile.Section("logging")
	cfg.Logging.Level = strings.ToLower(loggingSection.Key("level").MustString("info"))
	cfg.Logging.File = loggingSection.Key("file").String()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid browse.conf: %w", err)
	}

	return cfg, nil
}

// SaveBrowseConfig saves configuration to the browse.conf file.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func SaveBrowseConfig(cfg *BrowseConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultBrowseConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	collectionSection, err := iniFile.NewSection("collection")
	if err != nil {
		return fmt.Errorf("failed to create collection section: %w", err)
	}
	collectionSection.Key("structural_cadence_ms").SetValue(fmt.Sprintf("%d", cfg.Collection.StructuralCadenceMs))
	collectionSection.Key("count_cadence_ms").SetValue(fmt.Sprintf("%d", cfg.Collection.CountCadenceMs))
	collectionSection.Key("sort_threshold").SetValue(fmt.Sprintf("%d", cfg.Collection.SortThreshold))

	listingSection, err := iniFile.NewSection("listing")
	if err != nil {
		return fmt.Errorf("failed to create listing section: %w", err)
	}
	listingSection.Key("include_hidden").SetValue(fmt.Sprintf("%t", cfg.Listing.IncludeHidden))
	listingSection.Key("skip_hidden_dirs").SetValue(fmt.Sprintf("%t", cfg.Listing.SkipHiddenDirs))
	listingSection.Key("page_size").SetValue(fmt.Sprintf("%d", cfg.Listing.PageSize))
	listingSection.Key("requests_per_second").SetValue(fmt.Sprintf("%g", cfg.Listing.RequestsPerSecond))

	remoteSection, err := iniFile.NewSection("remote")
	if err != nil {
		return fmt.Errorf("failed to create remote section: %w", err)
	}
	remoteSection.Key("api_base_url").SetValue(cfg.Remote.APIBaseURL)

	loggingSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	loggingSection.Key("level").SetValue(cfg.Logging.Level)
	loggingSection.Key("file").SetValue(cfg.Logging.File)

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *BrowseConfig) Validate() error {
	maxMs := int(constants.MaxCadence / time.Millisecond)
	if cfg.Collection.StructuralCadenceMs < 0 || cfg.Collection.StructuralCadenceMs > maxMs {
		return ErrInvalidStructuralCadence
	}
	if cfg.Collection.CountCadenceMs < 0 || cfg.Collection.CountCadenceMs > maxMs {
		return ErrInvalidCountCadence
	}
	if cfg.Collection.SortThreshold < constants.MinSortThreshold {
		return ErrInvalidSortThreshold
	}
	if cfg.Listing.PageSize < 1 || cfg.Listing.PageSize > constants.MaxPageSize {
		return ErrInvalidPageSize
	}
	if cfg.Listing.RequestsPerSecond <= 0 {
		return ErrInvalidRequestRate
	}
	if !strings.HasPrefix(cfg.Remote.APIBaseURL, "http://") && !strings.HasPrefix(cfg.Remote.APIBaseURL, "https://") {
		return ErrInvalidAPIBaseURL
	}
	if !validLogLevels[cfg.Logging.Level] {
		return ErrInvalidLogLevel
	}
	return nil
}

// StructuralCadence returns the structural cadence as a duration.
func (c CollectionConfig) StructuralCadence() time.Duration {
	return time.Duration(c.StructuralCadenceMs) * time.Millisecond
}

// CountCadence returns the count cadence as a duration.
func (c CollectionConfig) CountCadence() time.Duration {
	return time.Duration(c.CountCadenceMs) * time.Millisecond
}
