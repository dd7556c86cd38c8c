package azure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/rescale-browse/internal/models"
)

type fakePages struct {
	pages   []container.ListBlobsHierarchyResponse
	failAt  int // page index that fails, -1 for none
	fetched int
	prefix  string
}

func (f *fakePages) pager(prefix string) *runtime.Pager[container.ListBlobsHierarchyResponse] {
	f.prefix = prefix
	return runtime.NewPager(runtime.PagingHandler[container.ListBlobsHierarchyResponse]{
		More: func(resp container.ListBlobsHierarchyResponse) bool {
			return resp.NextMarker != nil && *resp.NextMarker != ""
		},
		Fetcher: func(ctx context.Context, cur *container.ListBlobsHierarchyResponse) (container.ListBlobsHierarchyResponse, error) {
			i := f.fetched
			f.fetched++
			if i == f.failAt {
				return container.ListBlobsHierarchyResponse{}, errors.New("AuthorizationFailure")
			}
			return f.pages[i], nil
		},
	})
}

func page(next string, prefixes []string, blobs map[string]int64) container.ListBlobsHierarchyResponse {
	var resp container.ListBlobsHierarchyResponse
	seg := &container.BlobHierarchyListSegment{}
	for _, p := range prefixes {
		seg.BlobPrefixes = append(seg.BlobPrefixes, &container.BlobPrefix{Name: to.Ptr(p)})
	}
	mod := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for name, size := range blobs {
		seg.BlobItems = append(seg.BlobItems, &container.BlobItem{
			Name: to.Ptr(name),
			Properties: &container.BlobProperties{
				ContentLength: to.Ptr(size),
				LastModified:  to.Ptr(mod),
			},
		})
	}
	resp.Segment = seg
	if next != "" {
		resp.NextMarker = to.Ptr(next)
	}
	return resp
}

func TestListerList(t *testing.T) {
	fake := &fakePages{failAt: -1, pages: []container.ListBlobsHierarchyResponse{
		page("m2", []string{"jobs/run1/"}, map[string]int64{"jobs/input.zip": 512}),
		page("", nil, map[string]int64{"jobs/notes.txt": 7}),
	}}
	l := NewListerWithPager("data", fake.pager)

	var items []models.FileItem
	for item, err := range l.List(context.Background(), "jobs/") {
		require.NoError(t, err)
		items = append(items, item)
	}

	assert.Equal(t, "jobs/", fake.prefix)
	assert.Equal(t, 2, fake.fetched)
	require.Len(t, items, 3)

	assert.True(t, items[0].IsFolder)
	assert.Equal(t, "run1", items[0].Name)
	assert.Equal(t, "run1", items[0].Path)
	assert.Equal(t, "jobs/run1/", items[0].ID)

	assert.Equal(t, "input.zip", items[1].Name)
	assert.Equal(t, int64(512), items[1].Size)
	assert.Equal(t, models.SourceAzure, items[1].Source)
	assert.False(t, items[1].ModTime.IsZero())

	assert.Equal(t, "notes.txt", items[2].Name)
}

func TestListerPageError(t *testing.T) {
	fake := &fakePages{failAt: 1, pages: []container.ListBlobsHierarchyResponse{
		page("m2", nil, map[string]int64{"a.txt": 1}),
	}}
	l := NewListerWithPager("data", fake.pager)

	var n int
	var gotErr error
	for _, err := range l.List(context.Background(), "") {
		if err != nil {
			gotErr = err
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "AuthorizationFailure")
}
