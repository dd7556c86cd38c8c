package s3

import (
	"context"
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/models"
)

// Lister streams the objects under a prefix of one bucket.
type Lister struct {
	client   s3.ListObjectsV2APIClient
	bucket   string
	pageSize int32

	// Recursive lists every key under the prefix instead of one level.
	Recursive bool
}

// NewLister creates a Lister. pageSize <= 0 selects the default page size.
func NewLister(client s3.ListObjectsV2APIClient, bucket string, pageSize int) *Lister {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	return &Lister{client: client, bucket: bucket, pageSize: int32(pageSize)}
}

// List yields the entries under prefix, one page request at a time. Common
// prefixes become folders. A request error is yielded and ends the stream.
func (l *Lister) List(ctx context.Context, prefix string) iter.Seq2[models.FileItem, error] {
	return func(yield func(models.FileItem, error) bool) {
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(l.bucket),
			Prefix: aws.String(prefix),
		}
		if !l.Recursive {
			input.Delimiter = aws.String("/")
		}

		pager := s3.NewListObjectsV2Paginator(l.client, input, func(o *s3.ListObjectsV2PaginatorOptions) {
			o.Limit = l.pageSize
		})

		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(models.FileItem{}, fmt.Errorf("failed to list s3://%s/%s: %w", l.bucket, prefix, err))
				}
				return
			}

			for _, cp := range page.CommonPrefixes {
				key := aws.ToString(cp.Prefix)
				if !yield(l.folderItem(prefix, key), nil) {
					return
				}
			}

			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				// Folder marker objects
				if key == prefix || strings.HasSuffix(key, "/") {
					continue
				}
				item := models.FileItem{
					ID:      key,
					Name:    path.Base(key),
					Path:    strings.TrimPrefix(key, prefix),
					Size:    aws.ToInt64(obj.Size),
					ModTime: aws.ToTime(obj.LastModified),
					Source:  models.SourceS3,
				}
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

func (l *Lister) folderItem(prefix, key string) models.FileItem {
	trimmed := strings.TrimSuffix(key, "/")
	return models.FileItem{
		ID:       key,
		Name:     path.Base(trimmed),
		Path:     strings.TrimPrefix(trimmed, prefix),
		IsFolder: true,
		Source:   models.SourceS3,
	}
}
