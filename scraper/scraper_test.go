package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/models"
	"github.com/is-leeroy-jenkins/Soupy/writer"
)

type fakeFetcher struct {
	result  *models.Result
	err     error
	calls   int
	url     string
	timeout time.Duration
	headers map[string]string
}

func (f *fakeFetcher) FetchWithHeaders(_ context.Context, url string, timeout time.Duration, headers map[string]string) (*models.Result, error) {
	f.calls++
	f.url, f.timeout, f.headers = url, timeout, headers
	return f.result, f.err
}

func newResult(t *testing.T, markup string) *models.Result {
	t.Helper()
	r, err := models.NewResult("https://example.com/docs/intro", 200, "plain text",
		models.WithRawMarkup(markup),
		models.WithTitle("Intro"),
		models.WithStrategy("http"),
	)
	require.NoError(t, err)
	return r
}

const page = `<html><head><title>Intro</title></head><body>
<nav>menu</nav>
<h1>Welcome</h1>
<p>First paragraph.</p>
<p>Second paragraph.</p>
</body></html>`

func TestScrapeWritesMarkdown(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{result: newResult(t, page)}
	s := New(f, writer.New())

	resp, err := s.Scrape(context.Background(), &models.ScrapeRequest{URL: "https://example.com/docs/intro", Dir: dir, Timeout: 2 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "example-com-docs-intro.md"), resp.Path)
	assert.Equal(t, models.FormatMarkdown, resp.Format)
	assert.Equal(t, "http", resp.EngineUsed)
	assert.Equal(t, "Intro", resp.Title)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Content, "# Welcome")
	assert.Contains(t, resp.Content, "First paragraph.")
	assert.Positive(t, resp.Tokens.OriginalEstimate)
	assert.Equal(t, 2*time.Second, f.timeout)

	got, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "---\nsource_url: https://example.com/docs/intro\nstatus_code: 200\n---\n\n")
	assert.Contains(t, string(got), "# Welcome")
}

func TestScrapeTextFormat(t *testing.T) {
	s := New(&fakeFetcher{result: newResult(t, page)}, writer.New(writer.WithFrontMatter(false)))

	resp, err := s.Scrape(context.Background(), &models.ScrapeRequest{
		URL:      "https://example.com/docs/intro",
		Filename: "out",
		Dir:      t.TempDir(),
		Format:   models.FormatText,
	})
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.Second paragraph.", resp.Content)

	got, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.Second paragraph.\n", string(got))
}

func TestConvertDoesNotWrite(t *testing.T) {
	t.Chdir(t.TempDir())
	s := New(&fakeFetcher{result: newResult(t, page)}, nil)

	resp, err := s.Convert(context.Background(), &models.ScrapeRequest{URL: "https://example.com/docs/intro"})
	require.NoError(t, err)
	assert.Empty(t, resp.Path)
	assert.Contains(t, resp.Content, "Welcome")
	assert.NoDirExists(t, "output")
}

func TestScrapeSelectorAndExclude(t *testing.T) {
	s := New(&fakeFetcher{result: newResult(t, page)}, nil)

	resp, err := s.Convert(context.Background(), &models.ScrapeRequest{
		URL:      "https://example.com/docs/intro",
		Selector: "body",
		Exclude:  []string{"nav", "h1"},
	})
	require.NoError(t, err)
	assert.NotContains(t, resp.Content, "menu")
	assert.NotContains(t, resp.Content, "Welcome")
	assert.Contains(t, resp.Content, "Second paragraph.")
}

func TestScrapeFallsBackToText(t *testing.T) {
	r, err := models.NewResult("https://example.com", 200, "only text", models.WithStrategy("crawl"))
	require.NoError(t, err)
	s := New(&fakeFetcher{result: r}, nil)

	resp, err := s.Convert(context.Background(), &models.ScrapeRequest{URL: "https://example.com", Format: models.FormatText})
	require.NoError(t, err)
	assert.Equal(t, "only text", resp.Content)
}

func TestScrapeBlankURL(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, nil)

	_, err := s.Scrape(context.Background(), &models.ScrapeRequest{URL: " "})
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidArgument))
	_, err = s.Convert(context.Background(), nil)
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidArgument))
	assert.Zero(t, f.calls)
}

func TestScrapeFetchError(t *testing.T) {
	fetchErr := models.NewAllStrategiesFailed("fetch", []models.Diagnostic{{Strategy: "http", Message: "refused"}})
	s := New(&fakeFetcher{err: fetchErr}, nil)

	_, err := s.Scrape(context.Background(), &models.ScrapeRequest{URL: "https://example.com", Dir: t.TempDir()})
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.ErrCodeAllStrategiesFailed, se.Code)
}

func TestScrapeUnknownFormat(t *testing.T) {
	s := New(&fakeFetcher{result: newResult(t, page)}, nil)
	_, err := s.Convert(context.Background(), &models.ScrapeRequest{URL: "https://example.com", Format: "pdf"})
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidArgument))
}

func TestScrapePassesHeaders(t *testing.T) {
	f := &fakeFetcher{result: newResult(t, page)}
	s := New(f, nil)

	_, err := s.Convert(context.Background(), &models.ScrapeRequest{
		URL:     "https://example.com",
		Headers: map[string]string{"Cookie": "a=1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", f.url)
	assert.Equal(t, map[string]string{"Cookie": "a=1"}, f.headers)
}

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/docs/intro", "example-com-docs-intro"},
		{"https://Example.com/", "example-com"},
		{"https://example.com/a/page.html?q=1", "example-com-a-page-html"},
		{"", "index"},
		{"::bad", "index"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveFilename(tt.in), tt.in)
	}
}

func TestFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Output.FrontMatter = false
	s, err := FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	resp, err := s.Scrape(context.Background(), &models.ScrapeRequest{URL: srv.URL + "/docs", Filename: "docs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "http", resp.EngineUsed)

	got, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(got), "---"), "front matter disabled: %q", got)
	assert.Contains(t, string(got), "# Welcome")
}

func TestFromConfigSendsConfiguredHeaders(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Fetch.Headers = map[string]string{"accept-language": "de-DE"}
	s, err := FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = s.Convert(context.Background(), &models.ScrapeRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "de-DE", gotLang)
}

func TestScrapeLeavesRequestUntouched(t *testing.T) {
	s := New(&fakeFetcher{result: newResult(t, page)}, writer.New())

	req := &models.ScrapeRequest{URL: "https://example.com/docs/intro", Dir: t.TempDir()}
	before := *req
	resp, err := s.Scrape(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.FormatMarkdown, resp.Format)
	assert.Equal(t, before, *req)
	assert.Empty(t, req.Format)
}
