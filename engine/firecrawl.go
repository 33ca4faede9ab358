package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/is-leeroy-jenkins/Soupy/cleaner"
	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/models"
)

// firecrawlScrapeRequest is the body for POST /scrape.
type firecrawlScrapeRequest struct {
	URL     string            `json:"url"`
	Formats []string          `json:"formats,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// firecrawlScrapeResponse is the response from POST /scrape.
type firecrawlScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		RawHTML  string `json:"rawHtml"`
		HTML     string `json:"html"`
		Metadata struct {
			Title      string `json:"title"`
			SourceURL  string `json:"sourceURL"`
			URL        string `json:"url"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// FirecrawlOption configures a FirecrawlEngine.
type FirecrawlOption func(*FirecrawlEngine)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) FirecrawlOption {
	return func(e *FirecrawlEngine) {
		if url != "" {
			e.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) FirecrawlOption {
	return func(e *FirecrawlEngine) {
		if hc != nil {
			e.http = hc
		}
	}
}

// FirecrawlEngine delegates rendering to the Firecrawl scrape API.
type FirecrawlEngine struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewFirecrawlEngine creates a FirecrawlEngine.
func NewFirecrawlEngine(apiKey string, opts ...FirecrawlOption) *FirecrawlEngine {
	e := &FirecrawlEngine{
		apiKey:  apiKey,
		baseURL: config.DefaultFirecrawlURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *FirecrawlEngine) Name() string { return "firecrawl" }

// Probe reports the service as unavailable when no API key is configured.
// The hosted API has no unauthenticated health endpoint.
func (e *FirecrawlEngine) Probe(context.Context) error {
	if strings.TrimSpace(e.apiKey) == "" {
		return models.NewDependencyUnavailable("firecrawl service", eris.New("crawl.api_key is not set"))
	}
	return nil
}

func (e *FirecrawlEngine) Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error) {
	buf, err := json.Marshal(firecrawlScrapeRequest{
		URL:     req.URL,
		Formats: []string{"rawHtml"},
		Headers: req.Headers,
	})
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/scrape", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBody))
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("firecrawl: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out firecrawlScrapeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "firecrawl: decode response")
	}
	if !out.Success {
		return nil, fmt.Errorf("firecrawl: scrape failed: %s", out.Error)
	}

	markup := out.Data.RawHTML
	if markup == "" {
		markup = out.Data.HTML
	}
	if strings.TrimSpace(markup) == "" {
		return nil, eris.New("firecrawl: empty html")
	}

	meta := out.Data.Metadata
	finalURL := meta.SourceURL
	if meta.URL != "" {
		finalURL = meta.URL
	}
	if finalURL == "" {
		finalURL = req.URL
	}
	status := meta.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return models.NewResult(finalURL, status, cleaner.HTMLToText(markup),
		models.WithRawMarkup(markup),
		models.WithTitle(meta.Title),
		models.WithStrategy(e.Name()),
	)
}
