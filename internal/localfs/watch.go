package localfs

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/rescale/rescale-browse/internal/models"
)

// Watch streams entries that appear in dir until ctx is done.
//
// Created and renamed-in entries are yielded once each; removals and writes
// are not reported. With ExistingFirst the current contents come first. The
// watch is registered before the listing, so nothing created in between is
// missed. A watcher error is yielded and ends the stream.
func Watch(ctx context.Context, dir string, opts WatchOptions) iter.Seq2[models.FileItem, error] {
	return func(yield func(models.FileItem, error) bool) {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			yield(models.FileItem{}, fmt.Errorf("failed to create watcher: %w", err))
			return
		}
		defer w.Close()

		if err := w.Add(dir); err != nil {
			yield(models.FileItem{}, fmt.Errorf("failed to watch %s: %w", dir, err))
			return
		}

		seen := make(map[string]bool)
		emit := func(e FileEntry) bool {
			if seen[e.Path] {
				return true
			}
			seen[e.Path] = true
			return yield(ToFileItem(dir, e), nil)
		}

		if opts.ExistingFirst {
			entries, err := ListDirectory(ctx, dir, opts.ListOptions)
			if err != nil {
				if ctx.Err() == nil {
					yield(models.FileItem{}, err)
				}
				return
			}
			for _, e := range entries {
				if !emit(e) {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) {
					continue
				}
				if !opts.IncludeHidden && IsHidden(ev.Name) {
					continue
				}
				info, err := os.Lstat(ev.Name)
				if err != nil {
					// Already gone again
					continue
				}
				if !emit(newEntry(filepath.Join(dir, info.Name()), info)) {
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				yield(models.FileItem{}, fmt.Errorf("watch %s: %w", dir, err))
				return
			}
		}
	}
}
