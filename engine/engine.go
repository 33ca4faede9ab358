package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// Engine is the interface that all fetch strategies implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "crawl4ai", "rod").
	// It is used in diagnostics only.
	Name() string

	// Fetch makes exactly one attempt to retrieve the page.
	Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error)
}

// Prober is implemented by engines whose collaborator may be absent. Probe is
// called once, when the engine list is built, never per fetch.
type Prober interface {
	Probe(ctx context.Context) error
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// hasHeader reports whether headers contains name, ignoring case.
func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}

// withUserAgent returns a copy of headers that carries ua as User-Agent
// unless the caller already supplied one. The input map is never modified.
func withUserAgent(headers map[string]string, ua string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if ua != "" && !hasHeader(headers, "User-Agent") {
		out["User-Agent"] = ua
	}
	return out
}

// splitUserAgent separates the User-Agent (any case) from the other headers
// for services that take it as its own field. The input map is never modified.
func splitUserAgent(headers map[string]string) (string, map[string]string) {
	var ua string
	rest := make(map[string]string, len(headers))
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			ua = v
			continue
		}
		rest[k] = v
	}
	return ua, rest
}
