package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/is-leeroy-jenkins/Soupy/cleaner"
	"github.com/is-leeroy-jenkins/Soupy/models"
)

// crawl4aiRequest is the body of POST /crawl.
type crawl4aiRequest struct {
	URLs          []string               `json:"urls"`
	BrowserConfig *crawl4aiBrowserConfig `json:"browser_config,omitempty"`
}

// crawl4aiBrowserConfig carries the page request identity to the service's
// browser, in the typed {"type", "params"} form the service expects.
type crawl4aiBrowserConfig struct {
	Type   string                `json:"type"`
	Params crawl4aiBrowserParams `json:"params"`
}

type crawl4aiBrowserParams struct {
	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
}

// crawl4aiResponse is the reply of POST /crawl.
type crawl4aiResponse struct {
	Success bool             `json:"success"`
	Results []crawl4aiResult `json:"results"`
}

type crawl4aiResult struct {
	URL             string            `json:"url"`
	Success         bool              `json:"success"`
	HTML            string            `json:"html,omitempty"`
	CleanedHTML     string            `json:"cleaned_html,omitempty"`
	StatusCode      int               `json:"status_code,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	Metadata        struct {
		Title string `json:"title,omitempty"`
	} `json:"metadata,omitempty"`
}

// maxServiceBody caps how much of a crawl service reply is read.
const maxServiceBody = 32 << 20

// Crawl4AIEngine delegates rendering to a Crawl4AI service.
type Crawl4AIEngine struct {
	baseURL   string
	token     string
	userAgent string
	client    *http.Client
}

// NewCrawl4AIEngine creates a Crawl4AIEngine for the service at baseURL.
// token is sent as a bearer token when non-empty.
func NewCrawl4AIEngine(baseURL, token, userAgent string, client *http.Client) *Crawl4AIEngine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Crawl4AIEngine{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: userAgent,
		client:    client,
	}
}

func (e *Crawl4AIEngine) Name() string { return "crawl4ai" }

// Probe checks the service health endpoint.
func (e *Crawl4AIEngine) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return models.NewDependencyUnavailable("crawl4ai service", err)
	}
	e.authorize(req, e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.NewDependencyUnavailable("crawl4ai service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NewDependencyUnavailable("crawl4ai service",
			fmt.Errorf("health check returned status %d", resp.StatusCode))
	}
	return nil
}

func (e *Crawl4AIEngine) Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error) {
	ua, headers := splitUserAgent(withUserAgent(req.Headers, e.userAgent))
	body := crawl4aiRequest{URLs: []string{req.URL}}
	if ua != "" || len(headers) > 0 {
		body.BrowserConfig = &crawl4aiBrowserConfig{
			Type:   "BrowserConfig",
			Params: crawl4aiBrowserParams{Headers: headers, UserAgent: ua},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/crawl", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	e.authorize(httpReq, ua)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBody))
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("crawl4ai: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var crawlResp crawl4aiResponse
	if err := json.Unmarshal(raw, &crawlResp); err != nil {
		return nil, eris.Wrap(err, "crawl4ai: decode response")
	}
	if len(crawlResp.Results) == 0 {
		return nil, eris.New("crawl4ai: no results returned")
	}

	r := crawlResp.Results[0]
	if !crawlResp.Success {
		return nil, fmt.Errorf("crawl4ai: crawl failed: service reported failure: %s", r.ErrorMessage)
	}
	if !r.Success {
		return nil, fmt.Errorf("crawl4ai: crawl failed: %s", r.ErrorMessage)
	}
	markup := r.HTML
	if markup == "" {
		markup = r.CleanedHTML
	}
	if strings.TrimSpace(markup) == "" {
		return nil, eris.New("crawl4ai: empty html")
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	finalURL := r.URL
	if finalURL == "" {
		finalURL = req.URL
	}

	return models.NewResult(finalURL, status, cleaner.HTMLToText(markup),
		models.WithRawMarkup(markup),
		models.WithHeaders(models.HeadersFromMap(r.ResponseHeaders)),
		models.WithTitle(r.Metadata.Title),
		models.WithStrategy(e.Name()),
	)
}

// authorize sets the service request identity. ua is the effective page
// User-Agent, so the caller's choice wins over the configured default.
func (e *Crawl4AIEngine) authorize(req *http.Request, ua string) {
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
}

// truncate shortens s to at most n bytes for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
