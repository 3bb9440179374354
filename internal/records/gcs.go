package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSBackend stores each record as <prefix>/<namespace>/<kind>.json in a
// Cloud Storage bucket.
type GCSBackend struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSBackend opens a storage client. When credentialsFile is empty,
// Application Default Credentials are used.
func NewGCSBackend(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSBackend, error) {
	if bucket == "" {
		return nil, errors.New("gcs backend: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBackend{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName returns the object path for a record.
func ObjectName(prefix, namespace string, kind Kind) string {
	return path.Join(prefix, namespace, string(kind)+".json")
}

func (g *GCSBackend) object(namespace string, kind Kind) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(ObjectName(g.prefix, namespace, kind))
}

func (g *GCSBackend) Load(ctx context.Context, namespace string, kind Kind) ([]byte, error) {
	r, err := g.object(namespace, kind).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrRecordMissing
		}
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

func (g *GCSBackend) Save(ctx context.Context, namespace string, kind Kind, payload []byte) error {
	w := g.object(namespace, kind).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func (g *GCSBackend) Delete(ctx context.Context, namespace string, kind Kind) error {
	err := g.object(namespace, kind).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete GCS object: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCSBackend) Close() error {
	return g.client.Close()
}
