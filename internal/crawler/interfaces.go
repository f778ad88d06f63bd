package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata. Non-2xx
// responses are returned as responses, not errors.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// BlobStore writes serialized artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ScrapeRecorder persists one ledger row per stored crawl result.
type ScrapeRecorder interface {
	RecordScrape(ctx context.Context, record ScrapeRecord) error
}

// Hasher digests serialized crawl results.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces scrape IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// ScrapeRecord is the ledger entry written after a result is uploaded.
type ScrapeRecord struct {
	ID           string
	Domain       string
	StartedURL   string
	PagesScraped int
	MaxPages     int
	ObjectURI    string
	CreatedAt    time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock {
	return systemClock{}
}
