// Package config provides configuration management for rescale-browse.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogDirectory returns the directory for rotated log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\Rescale\Browse\logs
//   - Unix: ~/.config/rescale/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "rescale-browse-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "Rescale", "Browse", "logs")
	}

	// Unix: Use XDG config directory
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "rescale-browse-logs")
		}
		return filepath.Join(homeDir, ".config", "rescale", "logs")
	}
	return filepath.Join(configDir, "rescale", "logs")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// ResolveLogFile turns the [logging] file setting into a path. A bare file
// name is placed in LogDirectory; an empty setting means console only.
func ResolveLogFile(file string) string {
	if file == "" {
		return ""
	}
	if filepath.IsAbs(file) || filepath.Base(file) != file {
		return file
	}
	return filepath.Join(LogDirectory(), file)
}
