package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// objectWriter opens a writer for one object. The object is committed when
// the writer is closed without error.
type objectWriter interface {
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

type gcsBucket struct {
	handle *gcs.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	return w
}

// GCSPublisher writes artifacts to a Cloud Storage bucket.
type GCSPublisher struct {
	bucket string
	prefix string
	writer objectWriter
}

// NewGCSPublisher creates a publisher for bucket. Objects are named <prefix><key>.
func NewGCSPublisher(client *gcs.Client, bucket, prefix string) (*GCSPublisher, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	return &GCSPublisher{bucket: bucket, prefix: prefix, writer: gcsBucket{handle: client.Bucket(bucket)}}, nil
}

// Put uploads data as application/json.
func (p *GCSPublisher) Put(ctx context.Context, key string, data []byte) error {
	object := p.prefix + key
	w := p.writer.NewWriter(ctx, object, "application/json")
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading gs://%s/%s: %w", p.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("committing gs://%s/%s: %w", p.bucket, object, err)
	}
	return nil
}
