// Package scrape runs one crawl per request and persists its result.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-scraper/internal/crawler"
	"github.com/JakeFAU/site-scraper/internal/metrics"
)

// ErrMissingURL is returned when the request carries no website URL.
var ErrMissingURL = fmt.Errorf("%w: website_url is required", crawler.ErrInvalidInput)

// Scrape outcome labels reported to metrics.
const (
	statusSucceeded = "succeeded"
	statusInvalid   = "invalid"
	statusFailed    = "failed"
)

// Crawler runs a bounded crawl from a start URL.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, maxPages int) (crawler.CrawlResult, error)
}

// Config controls where results land and which side channels fire.
type Config struct {
	Prefix      string
	ContentType string
	MaxPages    int
	Topic       string
}

// Summary is returned to the caller after a result is stored.
type Summary struct {
	Domain       string `json:"domain"`
	PagesScraped int    `json:"pages_scraped"`
	GCSPath      string `json:"gcs_path"`
}

// Service crawls a site and uploads the aggregated result.
type Service struct {
	crawler   Crawler
	blobStore crawler.BlobStore
	recorder  crawler.ScrapeRecorder
	publisher crawler.Publisher
	hasher    crawler.Hasher
	ids       crawler.IDGenerator
	clock     crawler.Clock
	cfg       Config
	logger    *zap.Logger
}

// Option customizes optional Service collaborators.
type Option func(*Service)

// WithRecorder writes a ledger row after each upload.
func WithRecorder(recorder crawler.ScrapeRecorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithPublisher sends a completion notification after each upload. Nothing is
// published unless Config.Topic is also set.
func WithPublisher(publisher crawler.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithHasher attaches a content digest to notifications.
func WithHasher(hasher crawler.Hasher) Option {
	return func(s *Service) { s.hasher = hasher }
}

// WithClock overrides the ledger timestamp source.
func WithClock(clock crawler.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(
	c Crawler,
	blobStore crawler.BlobStore,
	ids crawler.IDGenerator,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		crawler:   c,
		blobStore: blobStore,
		ids:       ids,
		clock:     crawler.SystemClock(),
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape crawls websiteURL, uploads the result once, and reports where it
// was stored. Errors wrapping crawler.ErrInvalidInput mean the URL was
// rejected before any fetch; any other error means the upload failed.
//
// The crawl and upload continue if ctx is canceled, so a client disconnect
// never discards a finished crawl.
func (s *Service) Scrape(ctx context.Context, websiteURL string) (Summary, error) {
	if websiteURL == "" {
		metrics.ObserveScrape(statusInvalid)
		return Summary{}, ErrMissingURL
	}
	done := metrics.TrackScrape()
	defer done()

	workCtx := context.WithoutCancel(ctx)
	scrapeID, err := s.ids.NewID()
	if err != nil {
		metrics.ObserveScrape(statusFailed)
		return Summary{}, fmt.Errorf("generate scrape id: %w", err)
	}
	logger := s.logger.With(zap.String("scrape_id", scrapeID), zap.String("website_url", websiteURL))

	result, err := s.crawler.Crawl(workCtx, websiteURL, s.cfg.MaxPages)
	if err != nil {
		metrics.ObserveScrape(statusInvalid)
		logger.Info("scrape rejected", zap.Error(err))
		return Summary{}, err
	}

	data, err := encodeResult(result)
	if err != nil {
		metrics.ObserveScrape(statusFailed)
		return Summary{}, err
	}

	objectPath := s.objectPath(result)
	uri, err := s.blobStore.PutObject(workCtx, objectPath, s.cfg.ContentType, bytes.NewReader(data))
	if err != nil {
		metrics.ObserveScrape(statusFailed)
		logger.Error("upload failed", zap.String("path", objectPath), zap.Error(err))
		return Summary{}, fmt.Errorf("upload %s: %w", objectPath, err)
	}
	logger.Info("scrape stored",
		zap.String("domain", result.Domain),
		zap.Int("pages_scraped", result.PagesScraped),
		zap.String("object_uri", uri),
		zap.Int("bytes", len(data)),
	)

	s.record(workCtx, logger, scrapeID, result, uri)
	s.notify(workCtx, logger, scrapeID, result, uri, data)

	metrics.ObserveScrape(statusSucceeded)
	return Summary{
		Domain:       result.Domain,
		PagesScraped: result.PagesScraped,
		GCSPath:      uri,
	}, nil
}

// objectPath lays results out as <prefix>/<domain>/<created_utc>.json.
func (s *Service) objectPath(result crawler.CrawlResult) string {
	name := result.CreatedUTC + ".json"
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix == "" {
		return path.Join(result.Domain, name)
	}
	return path.Join(prefix, result.Domain, name)
}

func (s *Service) record(
	ctx context.Context,
	logger *zap.Logger,
	scrapeID string,
	result crawler.CrawlResult,
	uri string,
) {
	if s.recorder == nil {
		return
	}
	record := crawler.ScrapeRecord{
		ID:           scrapeID,
		Domain:       result.Domain,
		StartedURL:   result.StartedURL,
		PagesScraped: result.PagesScraped,
		MaxPages:     result.MaxPages,
		ObjectURI:    uri,
		CreatedAt:    s.createdAt(result),
	}
	if err := s.recorder.RecordScrape(ctx, record); err != nil {
		logger.Warn("ledger write failed", zap.Error(err))
	}
}

func (s *Service) notify(
	ctx context.Context,
	logger *zap.Logger,
	scrapeID string,
	result crawler.CrawlResult,
	uri string,
	data []byte,
) {
	if s.cfg.Topic == "" || s.publisher == nil {
		return
	}
	payload := map[string]any{
		"scrape_id":     scrapeID,
		"domain":        result.Domain,
		"started_url":   result.StartedURL,
		"pages_scraped": result.PagesScraped,
		"object_uri":    uri,
		"created_utc":   result.CreatedUTC,
	}
	if s.hasher != nil {
		digest, err := s.hasher.Hash(data)
		if err != nil {
			logger.Warn("digest failed", zap.Error(err))
		} else {
			payload["content_digest"] = digest
		}
	}
	msgID, err := s.publisher.Publish(ctx, s.cfg.Topic, payload)
	if err != nil {
		logger.Warn("notification failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
		return
	}
	logger.Debug("notification published", zap.String("topic", s.cfg.Topic), zap.String("message_id", msgID))
}

// createdAt recovers the crawl timestamp; the clock is the fallback when the
// stamp cannot be parsed.
func (s *Service) createdAt(result crawler.CrawlResult) time.Time {
	ts, err := time.Parse(crawler.CreatedUTCLayout, result.CreatedUTC)
	if err != nil {
		return s.clock.Now()
	}
	return ts
}

// encodeResult serializes result as UTF-8 JSON without HTML escaping.
func encodeResult(result crawler.CrawlResult) ([]byte, error) {
	if result.Pages == nil {
		result.Pages = []crawler.PageRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("encode crawl result: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
