package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIKeyEnv is the environment variable checked last by ResolveAPIKeySource.
const APIKeyEnv = "RESCALE_API_KEY"

// ErrNoAPIKey is returned when no source provides an API key.
var ErrNoAPIKey = errors.New("no API key: use --api-key, a token file or " + APIKeyEnv)

// ResolveAPIKeySource returns an API key and where it was found.
//
// Priority (highest to lowest):
//  1. flag (explicitly provided apiKey parameter)
//  2. token-file (DefaultTokenPath, next to browse.conf)
//  3. environment (RESCALE_API_KEY)
//
// source is "flag", "token-file", "environment", or "" if not found.
func ResolveAPIKeySource(apiKey string) (string, string) {
	if apiKey != "" {
		return apiKey, "flag"
	}

	if tokenPath := DefaultTokenPath(); tokenPath != "" {
		if key, err := ReadTokenFile(tokenPath); err == nil && key != "" {
			return key, "token-file"
		}
	}

	if envKey := os.Getenv(APIKeyEnv); envKey != "" {
		return envKey, "environment"
	}

	return "", ""
}

// DefaultTokenPath returns the token file stored next to browse.conf, or ""
// when the config directory cannot be determined.
func DefaultTokenPath() string {
	path, err := DefaultBrowseConfigPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "token")
}

// ReadTokenFile reads an API token from a file
// The file should contain only the API token (whitespace is trimmed)
// Warns if file permissions are too open (not 0600 on Unix systems)
func ReadTokenFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat token file: %w", err)
	}

	// Token files should be readable only by owner (0600 or stricter)
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: Token file %s has insecure permissions %04o. Consider using 'chmod 600 %s'\n", path, mode, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file is empty")
	}
	return token, nil
}

// WriteTokenFile writes an API token to a file with secure permissions (0600)
func WriteTokenFile(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("cannot write empty token")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
