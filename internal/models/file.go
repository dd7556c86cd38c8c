package models

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Item sources
const (
	SourceLocal  = "local"
	SourceS3     = "s3"
	SourceAzure  = "azure"
	SourceRemote = "remote"
)

// Sort keys accepted by FileItemComparator
const (
	SortByName = "name"
	SortBySize = "size"
	SortByDate = "date"
	SortByType = "type"
)

// SortKeys lists the accepted sort keys in display order.
var SortKeys = []string{SortByName, SortBySize, SortByDate, SortByType}

// ErrUnknownSortKey is returned for a sort key not in SortKeys.
var ErrUnknownSortKey = errors.New("unknown sort key")

// FileItem is one entry of a file listing, local or remote.
type FileItem struct {
	// ID is unique within a listing:
	// - local files: absolute path
	// - object stores: full object key
	// - Rescale API: file or folder ID
	ID string

	// Name is the display name (last path element)
	Name string

	// Path is the path relative to the listing root, slash separated
	Path string

	// Size is the size in bytes (0 for folders)
	Size int64

	IsFolder bool
	ModTime  time.Time

	// Source is one of the Source* constants
	Source string
}

// Ext returns the lowercased extension of a file, or "" for folders.
func (f FileItem) Ext() string {
	if f.IsFolder {
		return ""
	}
	return strings.ToLower(filepath.Ext(f.Name))
}

// FileItemComparator returns a comparator for sortBy.
//
// Folders always sort before files, whatever the direction. Ties on the sort
// key fall back to the natural name order and then to the ID, so the result is
// a total order and sorting is deterministic.
func FileItemComparator(sortBy string, ascending bool) (func(a, b FileItem) int, error) {
	var primary func(a, b FileItem) int
	switch sortBy {
	case SortByName, "":
		primary = compareNames
	case SortBySize:
		primary = func(a, b FileItem) int { return cmp.Compare(a.Size, b.Size) }
	case SortByDate:
		primary = func(a, b FileItem) int { return a.ModTime.Compare(b.ModTime) }
	case SortByType:
		primary = func(a, b FileItem) int { return strings.Compare(a.Ext(), b.Ext()) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, sortBy)
	}

	return func(a, b FileItem) int {
		if a.IsFolder != b.IsFolder {
			if a.IsFolder {
				return -1
			}
			return 1
		}

		c := primary(a, b)
		if c == 0 {
			c = compareNames(a, b)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if !ascending {
			c = -c
		}
		return c
	}, nil
}

func compareNames(a, b FileItem) int {
	return NaturalCompare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// NaturalLess reports whether a sorts before b when digit runs are compared
// by numeric value: "file2" < "file10".
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

// NaturalCompare compares a and b with digit runs compared numerically.
// Equal numbers with more leading zeros sort after: "file1" < "file01".
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			numStartA := i
			for i < len(a) && a[i] == '0' {
				i++
			}
			valStartA := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}

			numStartB := j
			for j < len(b) && b[j] == '0' {
				j++
			}
			valStartB := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}

			valA, valB := a[valStartA:i], b[valStartB:j]
			if len(valA) != len(valB) {
				return cmp.Compare(len(valA), len(valB))
			}
			if c := strings.Compare(valA, valB); c != 0 {
				return c
			}
			if c := cmp.Compare(i-numStartA, j-numStartB); c != 0 {
				return c
			}
			continue
		}

		if a[i] != b[j] {
			return cmp.Compare(a[i], b[j])
		}
		i++
		j++
	}
	return cmp.Compare(len(a)-i, len(b)-j)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
