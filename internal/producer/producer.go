// Package producer adapts item sources to the iterator forms ingested by a
// collection: iter.Seq for finite sources and iter.Seq2[T, error] for
// streaming ones.
//
// Producers stop yielding once their context is done. They never report the
// cancellation itself as an error; the ingesting side notices it on its own.
package producer

import (
	"context"
	"iter"
)

// FromSlice streams a finite slice.
func FromSlice[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range items {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromSeq lifts a finite sequence to the streaming form.
func FromSeq[T any](seq iter.Seq[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v := range seq {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromChannel yields values received on ch until it is closed or ctx is done.
func FromChannel[T any](ctx context.Context, ch <-chan T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// Page is one page of a paged listing.
type Page[T any] struct {
	Items   []T
	Next    string // Cursor for the following page
	HasMore bool
}

// PageFunc fetches the page starting at cursor. The first call gets "".
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Paged yields the items of every page, fetching the next page only once the
// current one has been consumed. A fetch error is yielded and ends the stream.
func Paged[T any](ctx context.Context, fetch PageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cursor := ""
		for {
			if ctx.Err() != nil {
				return
			}

			page, err := fetch(ctx, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				var zero T
				yield(zero, err)
				return
			}

			for _, v := range page.Items {
				if ctx.Err() != nil {
					return
				}
				if !yield(v, nil) {
					return
				}
			}

			if !page.HasMore {
				return
			}
			cursor = page.Next
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
