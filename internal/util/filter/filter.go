// Package filter provides reusable file filtering logic.
// The same rules apply to every listing source, local or remote.
package filter

import (
	"iter"
	"path/filepath"
	"strings"

	"github.com/rescale/rescale-browse/internal/models"
)

// Config holds filter configuration.
type Config struct {
	// Include patterns (glob-style), matched against the name. Empty means include all.
	// Example: []string{"*.dat", "*.txt"}
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	// Example: []string{"debug*", "temp*"}
	Exclude []string

	// Search terms (case-insensitive substring match on the name).
	// An item must match ALL search terms to be included.
	Search []string

	// PathInclude patterns match against the item's relative path.
	// Supports standard glob patterns plus ** for multi-directory matching:
	// "**/results.dat" matches "a/b/c/results.dat".
	PathInclude []string

	// FilesOnly applies the rules to files only; folders always pass.
	FilesOnly bool
}

// IsEmpty reports whether the config filters nothing.
func (c Config) IsEmpty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 && len(c.PathInclude) == 0
}

// Match reports whether item passes the filter.
func (c Config) Match(item models.FileItem) bool {
	if c.IsEmpty() || (c.FilesOnly && item.IsFolder) {
		return true
	}

	if len(c.PathInclude) > 0 {
		p := item.Path
		if p == "" {
			p = item.Name
		}
		if !matchesPathFilter(p, c.PathInclude) {
			return false
		}
	}

	return matchesFilter(item.Name, c)
}

// Apply filters a slice of items.
func Apply(items []models.FileItem, c Config) []models.FileItem {
	if c.IsEmpty() {
		return items
	}
	filtered := make([]models.FileItem, 0, len(items))
	for _, item := range items {
		if c.Match(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Seq drops items from src that do not pass the filter. Errors pass through.
func Seq(src iter.Seq2[models.FileItem, error], c Config) iter.Seq2[models.FileItem, error] {
	if c.IsEmpty() {
		return src
	}
	return func(yield func(models.FileItem, error) bool) {
		for item, err := range src {
			if err == nil && !c.Match(item) {
				continue
			}
			if !yield(item, err) {
				return
			}
		}
	}
}

// matchesFilter checks if a filename matches the filter configuration.
func matchesFilter(filename string, config Config) bool {
	// 1. Exclude patterns first (highest priority)
	for _, pattern := range config.Exclude {
		if matchName(pattern, filename) {
			return false
		}
	}

	// 2. Include patterns
	if len(config.Include) > 0 {
		included := false
		for _, pattern := range config.Include {
			if matchName(pattern, filename) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	// 3. Search terms
	if len(config.Search) > 0 {
		lowerFilename := strings.ToLower(filename)
		for _, term := range config.Search {
			if !strings.Contains(lowerFilename, strings.ToLower(term)) {
				return false
			}
		}
	}

	return true
}

func matchName(pattern, filename string) bool {
	if matched, _ := filepath.Match(pattern, filename); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(filename))
	return matched
}

// matchesPathFilter checks if a file path matches any of the path patterns.
func matchesPathFilter(filePath string, patterns []string) bool {
	filePath = filepath.ToSlash(filePath)
	for _, pattern := range patterns {
		if matchPathPattern(filePath, filepath.ToSlash(pattern)) {
			return true
		}
	}
	return false
}

// matchPathPattern matches a single path against a pattern.
func matchPathPattern(path, pattern string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoubleStarPattern(path, pattern)
	}
	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}

// matchDoubleStarPattern handles ** glob patterns for multi-directory matching.
// Examples:
//   - "**/foo.txt" matches "foo.txt", "a/foo.txt", "a/b/c/foo.txt"
//   - "run_1/**" matches "run_1/anything", "run_1/a/b/c/file.txt"
//   - "src/**/main.go" matches "src/main.go" and "src/cmd/app/main.go"
func matchDoubleStarPattern(path, pattern string) bool {
	if pattern == "**" {
		return true
	}

	// Leading **/ matches any prefix
	if suffix, ok := strings.CutPrefix(pattern, "**/"); ok {
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchPathPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	// Trailing /** matches any suffix
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				return true
			}
		}
		return false
	}

	// ** in the middle: prefix, any number of directories, suffix
	if idx := strings.Index(pattern, "/**/"); idx != -1 {
		prefix, suffix := pattern[:idx], pattern[idx+4:]
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); !matched {
				continue
			}
			for j := i; j < len(parts); j++ {
				if matchPathPattern(strings.Join(parts[j:], "/"), suffix) {
					return true
				}
			}
		}
		return false
	}

	// Anything else: ** behaves like *
	matched, _ := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), path)
	return matched
}

// ParsePatternList parses a comma-separated list of patterns into a slice.
// Example: "*.dat,*.txt" -> []string{"*.dat", "*.txt"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
