package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

type fakeEngine struct {
	name   string
	status int
	err    error
	panic  bool
	block  bool
	calls  int
	seen   *FetchRequest
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error) {
	f.calls++
	f.seen = req
	if f.panic {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return models.NewResult(req.URL, f.status, "body", models.WithStrategy(f.name))
}

func scrapeErr(t *testing.T, err error) *models.ScrapeError {
	t.Helper()
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se), "expected *models.ScrapeError, got %T", err)
	return se
}

func TestFetcherFirstSuccessWins(t *testing.T) {
	first := &fakeEngine{name: "a", err: errors.New("refused")}
	second := &fakeEngine{name: "b", status: 200}
	third := &fakeEngine{name: "c", status: 200}

	f := NewFetcher([]Engine{first, second, third})
	res, err := f.Fetch(context.Background(), "http://x", time.Second)
	require.NoError(t, err)

	assert.Equal(t, "b", res.Strategy())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls, "engines after the winner must not run")
}

func TestFetcherBlankURL(t *testing.T) {
	eng := &fakeEngine{name: "a", status: 200}
	f := NewFetcher([]Engine{eng})

	for _, url := range []string{"", "   "} {
		_, err := f.Fetch(context.Background(), url, time.Second)
		assert.Equal(t, models.ErrCodeInvalidArgument, scrapeErr(t, err).Code)
	}
	assert.Zero(t, eng.calls)
}

func TestFetcherAllFailedDiagnosticsInOrder(t *testing.T) {
	f := NewFetcher([]Engine{
		&fakeEngine{name: "a", err: errors.New("refused")},
		&fakeEngine{name: "b", panic: true},
		&fakeEngine{name: "c", err: errors.New("status 503")},
	})

	_, err := f.Fetch(context.Background(), "http://x", time.Second)
	se := scrapeErr(t, err)

	assert.Equal(t, models.ErrCodeAllStrategiesFailed, se.Code)
	require.Len(t, se.Diagnostics, 3)
	assert.Equal(t, models.Diagnostic{Strategy: "a", Message: "refused"}, se.Diagnostics[0])
	assert.Equal(t, models.Diagnostic{Strategy: "b", Message: "panic: boom"}, se.Diagnostics[1])
	assert.Equal(t, "c", se.Diagnostics[2].Strategy)
	assert.Contains(t, err.Error(), "- a: refused")
}

func TestFetcherNoEngines(t *testing.T) {
	_, err := NewFetcher(nil).Fetch(context.Background(), "http://x", time.Second)
	se := scrapeErr(t, err)
	assert.Equal(t, models.ErrCodeAllStrategiesFailed, se.Code)
	assert.Empty(t, se.Diagnostics)
}

func TestFetcherNonSuccessStatusPassesThrough(t *testing.T) {
	f := NewFetcher([]Engine{&fakeEngine{name: "a", status: 404}})
	res, err := f.Fetch(context.Background(), "http://x", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 404, res.StatusCode())
}

func TestFetcherPerAttemptTimeout(t *testing.T) {
	slow := &fakeEngine{name: "slow", block: true}
	fast := &fakeEngine{name: "fast", status: 200}
	f := NewFetcher([]Engine{slow, fast})

	res, err := f.Fetch(context.Background(), "http://x", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "fast", res.Strategy())
}

func TestFetcherDefaultTimeout(t *testing.T) {
	eng := &fakeEngine{name: "a", status: 200}
	f := NewFetcher([]Engine{eng}, WithDefaultTimeout(3*time.Second))

	_, err := f.Fetch(context.Background(), "http://x", 0)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, eng.seen.Timeout)
}

func TestFetcherNilResultIsFailure(t *testing.T) {
	f := NewFetcher([]Engine{nilEngine{}})
	_, err := f.Fetch(context.Background(), "http://x", time.Second)
	se := scrapeErr(t, err)
	require.Len(t, se.Diagnostics, 1)
	assert.Equal(t, "nil returned no result", se.Diagnostics[0].Message)
}

type nilEngine struct{}

func (nilEngine) Name() string { return "nil" }

func (nilEngine) Fetch(context.Context, *FetchRequest) (*models.Result, error) { return nil, nil }

func TestFetcherMergesHeaders(t *testing.T) {
	eng := &fakeEngine{name: "a", status: 200}
	f := NewFetcher([]Engine{eng}, WithHeaders(map[string]string{"X-Base": "1", "X-Both": "base"}))

	_, err := f.FetchWithHeaders(context.Background(), "http://x", time.Second, map[string]string{"X-Both": "call"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Base": "1", "X-Both": "call"}, eng.seen.Headers)
}

func TestFetcherEngines(t *testing.T) {
	f := NewFetcher([]Engine{&fakeEngine{name: "a"}, &fakeEngine{name: "b"}})
	assert.Equal(t, []string{"a", "b"}, f.Engines())
}
