package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-scraper/internal/extract"
	"github.com/JakeFAU/site-scraper/internal/metrics"
)

// DefaultMaxPages bounds a crawl when no explicit limit is configured.
const DefaultMaxPages = 30

// Page outcome labels reported to metrics.
const (
	outcomeCollected          = "collected"
	outcomeSkippedStatus      = "skipped_status"
	outcomeSkippedContentType = "skipped_content_type"
	outcomeFetchError         = "fetch_error"
)

// Config holds the settings for a crawl session.
type Config struct {
	MaxPages int
}

// Crawler runs bounded same-domain breadth-first crawls. A Crawler holds no
// per-crawl state and may serve concurrent Crawl calls.
type Crawler struct {
	fetcher Fetcher
	clock   Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Crawler.
func New(fetcher Fetcher, clock Clock, cfg Config, logger *zap.Logger) *Crawler {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Crawler{
		fetcher: fetcher,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// MaxPages returns the configured default page bound.
func (c *Crawler) MaxPages() int {
	return c.cfg.MaxPages
}

// Crawl fetches pages breadth-first from startURL, staying on its domain,
// until the frontier drains or maxPages distinct URLs have been processed.
// A maxPages of zero or less selects the configured default.
//
// The only error returned is one wrapping ErrInvalidInput, produced before any
// network access. Failures on individual pages mark the URL visited and the
// crawl moves on. The page bound is checked between fetches, never during one.
func (c *Crawler) Crawl(ctx context.Context, startURL string, maxPages int) (CrawlResult, error) {
	start, domain, err := ParseStartURL(startURL)
	if err != nil {
		return CrawlResult{}, err
	}
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}
	scope := ScopeHost(start)
	logger := c.logger.With(zap.String("domain", domain), zap.String("start_url", startURL))
	logger.Info("crawl started", zap.Int("max_pages", maxPages))

	f := newFrontier(startURL)
	pages := []PageRecord{}

	for f.Len() > 0 && f.VisitedCount() < maxPages {
		current, _ := f.Pop()
		if f.Visited(current) {
			continue
		}
		f.MarkVisited(current)

		page, links, ok := c.visit(ctx, current, logger)
		if !ok {
			continue
		}
		pages = append(pages, page)
		c.enqueueLinks(f, current, links, scope)
	}

	result := CrawlResult{
		Domain:       domain,
		StartedURL:   startURL,
		PagesScraped: len(pages),
		MaxPages:     maxPages,
		Pages:        pages,
		CreatedUTC:   c.clock.Now().UTC().Format(CreatedUTCLayout),
	}
	logger.Info("crawl finished",
		zap.Int("pages_scraped", result.PagesScraped),
		zap.Int("urls_visited", f.VisitedCount()),
		zap.Int("frontier_remaining", f.Len()),
	)
	return result, nil
}

// visit fetches one URL and, when it is an HTML page, returns its record and
// raw anchor targets.
func (c *Crawler) visit(ctx context.Context, target string, logger *zap.Logger) (PageRecord, []string, bool) {
	resp, err := c.fetcher.Fetch(ctx, FetchRequest{URL: target})
	if err != nil {
		logger.Debug("fetch failed", zap.String("url", target), zap.Error(err))
		metrics.ObserveCrawl(target, outcomeFetchError, 0)
		return PageRecord{}, nil, false
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debug("skipping non-200 response", zap.String("url", target), zap.Int("status", resp.StatusCode))
		metrics.ObserveCrawl(target, outcomeSkippedStatus, len(resp.Body))
		return PageRecord{}, nil, false
	}
	if contentType := resp.ContentType(); !strings.Contains(contentType, "text/html") {
		logger.Debug("skipping non-HTML response", zap.String("url", target), zap.String("content_type", contentType))
		metrics.ObserveCrawl(target, outcomeSkippedContentType, len(resp.Body))
		return PageRecord{}, nil, false
	}

	doc, err := extract.Parse(resp.Body)
	if err != nil {
		logger.Debug("parse failed", zap.String("url", target), zap.Error(err))
		metrics.ObserveCrawl(target, outcomeFetchError, len(resp.Body))
		return PageRecord{}, nil, false
	}
	metrics.ObserveCrawl(target, outcomeCollected, len(resp.Body))
	logger.Debug("page collected", zap.String("url", target), zap.Duration("duration", resp.Duration))
	return PageRecord{URL: target, Text: doc.Text()}, doc.Links(), true
}

func (c *Crawler) enqueueLinks(f *frontier, pageURL string, links []string, scope string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	for _, href := range links {
		next, ok := NormalizeLink(base, href, scope)
		if !ok {
			continue
		}
		f.Push(next)
	}
}
