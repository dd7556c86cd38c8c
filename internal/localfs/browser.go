package localfs

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/rescale/rescale-browse/internal/models"
)

// FileEntry represents a file or directory in the local filesystem.
type FileEntry struct {
	Path    string      // Full path to the file
	Name    string      // Base name of the file
	Size    int64       // Size in bytes (0 for directories)
	IsDir   bool        // True if this is a directory
	ModTime time.Time   // Last modification time
	Mode    fs.FileMode // File mode/permissions
}

// errStopWalk ends a walk early without reporting an error.
var errStopWalk = errors.New("walk stopped")

func newEntry(path string, info fs.FileInfo) FileEntry {
	e := FileEntry{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	if e.IsDir {
		e.Size = 0
	}
	return e
}

// ToFileItem converts an entry found under root to a list item.
// The ID is the absolute path; Path is relative to root, slash separated.
func ToFileItem(root string, e FileEntry) models.FileItem {
	id := e.Path
	if abs, err := filepath.Abs(e.Path); err == nil {
		id = abs
	}
	rel, err := filepath.Rel(root, e.Path)
	if err != nil {
		rel = e.Name
	}

	return models.FileItem{
		ID:       id,
		Name:     e.Name,
		Path:     filepath.ToSlash(rel),
		Size:     e.Size,
		IsFolder: e.IsDir,
		ModTime:  e.ModTime,
		Source:   models.SourceLocal,
	}
}

// ListDirectory returns the contents of a directory, filtered by options.
// Returns FileEntry slice sorted by the filesystem's native order.
func ListDirectory(ctx context.Context, path string, opts ListOptions) ([]FileEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	result := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := entry.Name()

		// Filter hidden files unless explicitly included
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Skip entries we can't stat (permission issues, etc.)
			continue
		}

		result = append(result, newEntry(filepath.Join(path, name), info))
	}

	return result, nil
}

// List streams the contents of dir as list items.
func List(ctx context.Context, dir string, opts ListOptions) iter.Seq2[models.FileItem, error] {
	return func(yield func(models.FileItem, error) bool) {
		entries, err := ListDirectory(ctx, dir, opts)
		if err != nil {
			if ctx.Err() == nil {
				yield(models.FileItem{}, err)
			}
			return
		}
		for _, e := range entries {
			if ctx.Err() != nil || !yield(ToFileItem(dir, e), nil) {
				return
			}
		}
	}
}

// WalkFunc is the callback signature for Walk.
// Return filepath.SkipDir to skip a directory, or any other error to stop walking.
type WalkFunc func(entry FileEntry) error

// Walk traverses a directory tree, calling fn for each file and directory.
// It respects WalkOptions for hidden file/directory filtering below root.
//
// The walk is depth-first. Directories are visited before their contents.
// If fn returns filepath.SkipDir for a directory, that directory's contents are skipped.
// If fn returns any other non-nil error, the walk stops and returns that error.
func Walk(root string, opts WalkOptions, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Error accessing path - skip it
			return nil
		}

		name := d.Name()

		// The root is walked even when its own name is hidden
		if path != root && !opts.IncludeHidden && IsHiddenName(name) {
			if d.IsDir() && opts.SkipHiddenDirs {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		return fn(newEntry(path, info))
	})
}

// Enumerate streams every entry under root, depth first, directories before
// their contents. The root itself is not yielded. A missing root is reported
// as an error; unreadable entries below it are skipped.
func Enumerate(ctx context.Context, root string, opts WalkOptions) iter.Seq2[models.FileItem, error] {
	return func(yield func(models.FileItem, error) bool) {
		if _, err := os.Stat(root); err != nil {
			yield(models.FileItem{}, err)
			return
		}

		err := Walk(root, opts, func(e FileEntry) error {
			if e.Path == root {
				return nil
			}
			if ctx.Err() != nil {
				return errStopWalk
			}
			if !yield(ToFileItem(root, e), nil) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield(models.FileItem{}, err)
		}
	}
}
