package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// DefaultTimeout is the per-attempt budget used when the caller passes none.
const DefaultTimeout = 10 * time.Second

// Fetcher tries its engines strictly in order, one attempt each, and returns
// the first Result. It holds no per-call state.
type Fetcher struct {
	engines        []Engine
	defaultTimeout time.Duration
	headers        map[string]string
	log            *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithDefaultTimeout sets the budget used when Fetch is given a zero timeout.
func WithDefaultTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.defaultTimeout = d
		}
	}
}

// WithHeaders sets headers sent with every request. The map is copied.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// NewFetcher creates a Fetcher over engines in priority order.
func NewFetcher(engines []Engine, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		engines:        append([]Engine(nil), engines...),
		defaultTimeout: DefaultTimeout,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Engines returns the engine names in priority order.
func (f *Fetcher) Engines() []string {
	names := make([]string, len(f.engines))
	for i, e := range f.engines {
		names[i] = e.Name()
	}
	return names
}

// Fetch retrieves url with the configured headers.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (*models.Result, error) {
	return f.FetchWithHeaders(ctx, url, timeout, nil)
}

// FetchWithHeaders retrieves url, merging headers over the configured ones.
//
// A blank url fails with INVALID_ARGUMENT before any engine runs. Each engine
// gets its own timeout; a failure, timeout or panic is recorded and the next
// engine is tried. When every engine fails the error is ALL_STRATEGIES_FAILED
// with one diagnostic per engine, in order.
func (f *Fetcher) FetchWithHeaders(ctx context.Context, url string, timeout time.Duration, headers map[string]string) (*models.Result, error) {
	if strings.TrimSpace(url) == "" {
		return nil, models.NewInvalidArgument("url")
	}
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	merged := make(map[string]string, len(f.headers)+len(headers))
	for k, v := range f.headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}

	diags := make([]models.Diagnostic, 0, len(f.engines))
	for _, eng := range f.engines {
		start := time.Now()
		f.log.Debug("engine starting", zap.String("engine", eng.Name()), zap.String("url", url))

		result, err := f.attempt(ctx, eng, &FetchRequest{URL: url, Headers: merged, Timeout: timeout})
		if err != nil {
			failure := models.NewStrategyFailure(eng.Name(), err)
			f.log.Debug("engine failed, trying next",
				zap.String("engine", eng.Name()),
				zap.String("url", url),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(failure),
			)
			diags = append(diags, failure.Diagnostic())
			continue
		}

		f.log.Info("page fetched",
			zap.String("engine", eng.Name()),
			zap.String("url", result.URL()),
			zap.Int("status", result.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return result, nil
	}

	return nil, models.NewAllStrategiesFailed("fetch", diags)
}

// attempt runs one engine under its own deadline and converts a panic into
// an error.
func (f *Fetcher) attempt(ctx context.Context, eng Engine, req *FetchRequest) (result *models.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	result, err = eng.Fetch(ctx, req)
	if err == nil && result == nil {
		err = fmt.Errorf("%s returned no result", eng.Name())
	}
	return result, err
}
