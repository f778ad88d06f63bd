// Package api hosts the HTTP server and middleware for the scraper. Routes:
//   - GET / returns "ok" for load balancer checks.
//   - GET /healthz and /readyz for container probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /scrape crawls a site synchronously and returns where the result was stored.
package api
