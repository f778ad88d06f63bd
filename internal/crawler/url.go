package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidInput marks a start URL that cannot begin a crawl.
var ErrInvalidInput = errors.New("invalid input")

const wwwPrefix = "www."

// ParseStartURL validates raw and returns the parsed URL together with the
// crawl domain: the lower-cased host with a leading "www." removed. The
// domain is used for reporting and object paths; links are scoped with
// ScopeHost instead.
func ParseStartURL(raw string) (*url.URL, string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, "", fmt.Errorf("%w: start url is empty", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse start url: %v", ErrInvalidInput, err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("%w: start url %q has no host", ErrInvalidInput, raw)
	}
	domain := stripWWW(strings.ToLower(u.Host))
	if domain == "" {
		return nil, "", fmt.Errorf("%w: start url %q has no host after removing www.", ErrInvalidInput, raw)
	}
	return u, domain, nil
}

// ScopeHost returns the host links must match to stay in the crawl: the
// start URL's host as written, with a leading "www." removed.
func ScopeHost(start *url.URL) string {
	return stripWWW(start.Host)
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, wwwPrefix)
}

// NormalizeLink resolves href against base and returns the URL to enqueue.
// ok is false when the link leaves scope, uses a scheme other than http or
// https, or normalizes to the empty string.
//
// Host comparison is exact after removing "www.": a link whose host differs
// from scope only by letter case is treated as off-domain.
func NormalizeLink(base *url.URL, href, scope string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if stripWWW(abs.Host) != scope {
		return "", false
	}
	normalized := abs.String()
	if idx := strings.Index(normalized, "#"); idx >= 0 {
		normalized = normalized[:idx]
	}
	normalized = strings.TrimRight(normalized, "/")
	if normalized == "" {
		return "", false
	}
	return normalized, true
}
