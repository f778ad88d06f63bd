// Package crawler implements the bounded, same-domain breadth-first crawl
// that turns a start URL into a CrawlResult.
package crawler
