// Package main hosts the site scraper service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes "/", health, metrics, and POST /scrape. A scrape request is
//     served synchronously: the handler blocks until the crawl finishes and the result is stored.
//   - Crawl: internal/crawler runs a breadth-first crawl bounded to the start URL's domain and to
//     crawler.max_pages distinct URLs. Pages are fetched one at a time through the Colly fetcher with a
//     fixed user agent and per-request timeout; visible text is extracted with goquery.
//   - Persistence & fanout: the aggregated result is uploaded once as JSON to the configured BlobStore
//     (GCS, local, or memory) under <prefix>/<domain>/<created_utc>.json. A ledger row is optionally
//     written to Postgres and a completion notification optionally published to Pub/Sub.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging;
//     Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Operational notes:
//   - Crawls continue if the client disconnects, so finished work is always uploaded.
//   - There is no retry, robots.txt handling, or crawl delay.
//   - Cloud Run: the HTTP server listens on PORT when set and shuts down cleanly on SIGTERM.
//
// Quick checklist:
//   - Configure env vars: PORT or CRAWLER_SERVER_PORT, CRAWLER_CRAWLER_MAX_PAGES, CRAWLER_HTTP_TIMEOUT_SECONDS,
//     storage (CRAWLER_STORAGE_*), CRAWLER_DB_DSN for the ledger, CRAWLER_PUBSUB_* for notifications.
//   - Run locally: go run ./cmd/sitescraper -config config.yaml, or CRAWLER_STORAGE_BACKEND=memory with no file.
package main
