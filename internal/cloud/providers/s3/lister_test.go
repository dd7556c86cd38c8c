package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/rescale-browse/internal/models"
)

// fakeS3 serves pages keyed by continuation token ("" for the first page).
type fakeS3 struct {
	pages  map[string]*s3.ListObjectsV2Output
	err    error
	inputs []s3.ListObjectsV2Input
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, *in)
	token := aws.ToString(in.ContinuationToken)
	if f.err != nil && token != "" {
		return nil, f.err
	}
	page, ok := f.pages[token]
	if !ok {
		return nil, errors.New("unknown token " + token)
	}
	return page, nil
}

func object(key string, size int64, mod time.Time) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size), LastModified: aws.Time(mod)}
}

func twoPages() *fakeS3 {
	mod := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeS3{pages: map[string]*s3.ListObjectsV2Output{
		"": {
			CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("runs/out/")}},
			Contents: []types.Object{
				object("runs/", 0, mod),
				object("runs/a.log", 10, mod),
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t2"),
		},
		"t2": {
			Contents:    []types.Object{object("runs/b.dat", 2048, mod)},
			IsTruncated: aws.Bool(false),
		},
	}}
}

func collect(t *testing.T, l *Lister, prefix string) ([]models.FileItem, error) {
	t.Helper()
	var items []models.FileItem
	for item, err := range l.List(context.Background(), prefix) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

func TestListerList(t *testing.T) {
	fake := twoPages()
	l := NewLister(fake, "bucket", 2)

	items, err := collect(t, l, "runs/")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, models.FileItem{ID: "runs/out/", Name: "out", Path: "out", IsFolder: true, Source: models.SourceS3}, items[0])
	assert.Equal(t, "a.log", items[1].Name)
	assert.Equal(t, int64(10), items[1].Size)
	assert.Equal(t, "b.dat", items[2].Name)
	assert.Equal(t, "runs/b.dat", items[2].ID)

	require.Len(t, fake.inputs, 2)
	assert.Equal(t, "/", aws.ToString(fake.inputs[0].Delimiter))
	assert.Equal(t, int32(2), aws.ToInt32(fake.inputs[0].MaxKeys))
	assert.Equal(t, "t2", aws.ToString(fake.inputs[1].ContinuationToken))
}

func TestListerRecursiveDropsDelimiter(t *testing.T) {
	fake := twoPages()
	l := NewLister(fake, "bucket", 0)
	l.Recursive = true

	_, err := collect(t, l, "runs/")
	require.NoError(t, err)
	assert.Nil(t, fake.inputs[0].Delimiter)
}

func TestListerStopsEarly(t *testing.T) {
	fake := twoPages()
	l := NewLister(fake, "bucket", 2)

	for range l.List(context.Background(), "runs/") {
		break
	}
	assert.Len(t, fake.inputs, 1, "second page must not be fetched")
}

func TestListerPageError(t *testing.T) {
	fake := twoPages()
	fake.err = errors.New("AccessDenied")
	l := NewLister(fake, "bucket", 2)

	items, err := collect(t, l, "runs/")
	assert.ErrorIs(t, err, fake.err)
	assert.Contains(t, err.Error(), "s3://bucket/runs/")
	assert.Len(t, items, 2, "first page is delivered before the failure")
}
