// Package scraper ties the fetch, clean and write stages into one call.
package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/cleaner"
	"github.com/is-leeroy-jenkins/Soupy/models"
	"github.com/is-leeroy-jenkins/Soupy/writer"
)

// Fetcher retrieves one page. *engine.Fetcher satisfies it.
type Fetcher interface {
	FetchWithHeaders(ctx context.Context, url string, timeout time.Duration, headers map[string]string) (*models.Result, error)
}

// Scraper runs fetch, clean and write strictly in sequence. It holds no
// per-call state.
type Scraper struct {
	fetcher     Fetcher
	writer      *writer.Writer
	readability bool
	log         *zap.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scraper) {
		if log != nil {
			s.log = log
		}
	}
}

// WithReadability puts the readability extractor first in the text chain.
func WithReadability(enabled bool) Option {
	return func(s *Scraper) { s.readability = enabled }
}

// New creates a Scraper. A nil writer uses writer.New().
func New(fetcher Fetcher, w *writer.Writer, opts ...Option) *Scraper {
	if w == nil {
		w = writer.New()
	}
	s := &Scraper{fetcher: fetcher, writer: w, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches req.URL, cleans it and writes the file.
//
// Flow:
//  1. Fetch through the fallback fetcher.
//  2. Clean the raw markup, or the plain text when the strategy kept none.
//  3. Write to req.Dir/req.Filename, deriving the name from the URL if empty.
func (s *Scraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error) {
	req, err := resolve(req)
	if err != nil {
		return nil, err
	}
	resp, result, err := s.convert(ctx, req)
	if err != nil {
		return nil, err
	}

	// ── 3. Write ────────────────────────────────────────────────────
	filename := req.Filename
	if strings.TrimSpace(filename) == "" {
		filename = deriveFilename(req.URL)
	}
	path, err := s.writer.Write(resp.Content, writer.HeaderFrom(result), filename, req.Dir)
	if err != nil {
		return nil, err
	}
	resp.Path = path

	s.log.Info("page saved", zap.String("url", resp.SourceURL), zap.String("path", path))
	return resp, nil
}

// Convert is Scrape without the write step.
func (s *Scraper) Convert(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error) {
	req, err := resolve(req)
	if err != nil {
		return nil, err
	}
	resp, _, err := s.convert(ctx, req)
	return resp, err
}

// resolve validates req and returns a copy with defaults applied. The
// caller's request is never modified.
func resolve(req *models.ScrapeRequest) (*models.ScrapeRequest, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, models.NewInvalidArgument("url")
	}
	local := *req
	local.Defaults()
	return &local, nil
}

// convert expects a request already passed through resolve.
func (s *Scraper) convert(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, *models.Result, error) {
	totalStart := time.Now()

	// ── 1. Fetch ────────────────────────────────────────────────────
	result, err := s.fetcher.FetchWithHeaders(ctx, req.URL, req.Timeout, req.Headers)
	if err != nil {
		return nil, nil, err
	}
	fetchMs := time.Since(totalStart).Milliseconds()

	// ── 2. Clean ────────────────────────────────────────────────────
	input, ok := result.RawMarkup()
	if !ok || strings.TrimSpace(input) == "" {
		s.log.Debug("no markup kept, cleaning plain text", zap.String("strategy", result.Strategy()))
		input = result.Text()
	}

	cleanStart := time.Now()
	cl := cleaner.New(cleaner.Options{
		PageURL:     result.URL(),
		Readability: s.readability,
		Selector:    req.Selector,
		Exclude:     req.Exclude,
	})
	content, err := cl.Clean(input, req.Format)
	if err != nil {
		return nil, nil, err
	}

	resp := &models.ScrapeResponse{
		Content:    content,
		Format:     req.Format,
		SourceURL:  result.URL(),
		StatusCode: result.StatusCode(),
		Title:      result.Title(),
		EngineUsed: result.Strategy(),
		Tokens: models.TokenInfo{
			OriginalEstimate: cleaner.EstimateTokens(input),
			CleanedEstimate:  cleaner.EstimateTokens(content),
		},
		Timing: models.TimingInfo{
			TotalMs:    time.Since(totalStart).Milliseconds(),
			FetchMs:    fetchMs,
			CleaningMs: time.Since(cleanStart).Milliseconds(),
		},
	}

	s.log.Info("page converted",
		zap.String("url", resp.SourceURL),
		zap.String("strategy", resp.EngineUsed),
		zap.String("format", resp.Format),
		zap.Int("tokens_original", resp.Tokens.OriginalEstimate),
		zap.Int("tokens_cleaned", resp.Tokens.CleanedEstimate),
		zap.Int64("total_ms", resp.Timing.TotalMs),
	)
	return resp, result, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// deriveFilename turns a URL into a file stem such as "example-com-docs-intro".
// It returns "index" when the URL yields nothing usable.
func deriveFilename(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "index"
	}
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(u.Host+u.Path), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "index"
	}
	return slug
}
