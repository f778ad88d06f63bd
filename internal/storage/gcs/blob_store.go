// Package gcs stores crawl results as objects in Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// DefaultContentType is applied when PutObject is called without one.
const DefaultContentType = "application/json"

// Config names the destination bucket.
type Config struct {
	Bucket string
	// ChunkSize is the resumable upload buffer. Zero sends each result in a
	// single request, which suits one JSON document per crawl.
	ChunkSize int
}

// BlobStore uploads crawl results to one bucket. The client is owned by the
// caller and shared across uploads.
type BlobStore struct {
	client    *storage.Client
	bucket    string
	chunkSize int
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be >= 0, got %d", cfg.ChunkSize)
	}
	return &BlobStore{
		client:    client,
		bucket:    cfg.Bucket,
		chunkSize: cfg.ChunkSize,
	}, nil
}

// Bucket returns the destination bucket name.
func (s *BlobStore) Bucket() string {
	return s.bucket
}

// ObjectURI returns the gs:// URI reported for path.
func (s *BlobStore) ObjectURI(path string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, strings.TrimPrefix(path, "/"))
}

// PutObject uploads data as path and returns its gs:// URI. A leading slash
// in path is dropped so objects never start with an empty segment.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if name == "" {
		return "", fmt.Errorf("path is required")
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	writer.ChunkSize = s.chunkSize
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("upload gs://%s/%s: %w (close writer: %v)", s.bucket, name, err, closeErr)
		}
		return "", fmt.Errorf("upload gs://%s/%s: %w", s.bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", s.bucket, name, err)
	}
	return s.ObjectURI(name), nil
}
