package crawler

import (
	"net/http"
	"time"
)

// CreatedUTCLayout formats CrawlResult.CreatedUTC. Colons are replaced by
// hyphens so the stamp can be used as an object path segment.
const CreatedUTCLayout = "2006-01-02T15-04-05Z"

// PageRecord is collected for each successfully fetched HTML page.
type PageRecord struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// CrawlResult is the aggregated output of one crawl. It is written once to
// durable storage and never modified afterwards.
type CrawlResult struct {
	Domain       string       `json:"domain"`
	StartedURL   string       `json:"started_url"`
	PagesScraped int          `json:"pages_scraped"`
	MaxPages     int          `json:"max_pages"`
	Pages        []PageRecord `json:"pages"`
	CreatedUTC   string       `json:"created_utc"`
}

// FetchRequest names the URL to fetch.
type FetchRequest struct {
	URL string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentType returns the declared Content-Type header, or "" when absent.
func (r FetchResponse) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}
