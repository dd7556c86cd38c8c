package azure

import (
	"context"
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/models"
)

// PagerFunc starts a hierarchical listing of prefix.
type PagerFunc func(prefix string) *runtime.Pager[container.ListBlobsHierarchyResponse]

// Lister streams the blobs under a prefix of one container, one level deep.
type Lister struct {
	container string
	newPager  PagerFunc
}

// NewLister lists containerName through client.
func NewLister(client *azblob.Client, containerName string, pageSize int) *Lister {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	cc := client.ServiceClient().NewContainerClient(containerName)
	maxResults := int32(pageSize)

	return NewListerWithPager(containerName, func(prefix string) *runtime.Pager[container.ListBlobsHierarchyResponse] {
		return cc.NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
			Prefix:     &prefix,
			MaxResults: &maxResults,
		})
	})
}

// NewListerWithPager lists through newPager instead of a live client.
func NewListerWithPager(containerName string, newPager PagerFunc) *Lister {
	return &Lister{container: containerName, newPager: newPager}
}

// List yields the entries under prefix. Blob prefixes become folders.
// A page error is yielded and ends the stream.
func (l *Lister) List(ctx context.Context, prefix string) iter.Seq2[models.FileItem, error] {
	return func(yield func(models.FileItem, error) bool) {
		pager := l.newPager(prefix)

		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(models.FileItem{}, fmt.Errorf("failed to list %s/%s: %w", l.container, prefix, err))
				}
				return
			}
			if page.Segment == nil {
				continue
			}

			for _, p := range page.Segment.BlobPrefixes {
				if p == nil || p.Name == nil {
					continue
				}
				name := strings.TrimSuffix(*p.Name, "/")
				item := models.FileItem{
					ID:       *p.Name,
					Name:     path.Base(name),
					Path:     strings.TrimPrefix(name, prefix),
					IsFolder: true,
					Source:   models.SourceAzure,
				}
				if !yield(item, nil) {
					return
				}
			}

			for _, b := range page.Segment.BlobItems {
				if b == nil || b.Name == nil {
					continue
				}
				item := models.FileItem{
					ID:     *b.Name,
					Name:   path.Base(*b.Name),
					Path:   strings.TrimPrefix(*b.Name, prefix),
					Source: models.SourceAzure,
				}
				if props := b.Properties; props != nil {
					if props.ContentLength != nil {
						item.Size = *props.ContentLength
					}
					if props.LastModified != nil {
						item.ModTime = *props.LastModified
					}
				}
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}
