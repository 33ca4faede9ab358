package engine

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/config"
)

// probeTimeout bounds each capability probe.
const probeTimeout = 5 * time.Second

// BuildEngines assembles the engine list in priority order:
// rendered crawl service, direct HTTP, headless browser.
//
// Optional engines are probed once here. An engine whose probe fails is left
// out with a warning; fetches never see it. The direct HTTP engine is always
// present unless its configuration is invalid.
func BuildEngines(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var engines []Engine

	// ── 1. Rendered crawl service ───────────────────────────────────
	if crawl := crawlEngine(cfg); crawl != nil {
		engines = appendIfAvailable(ctx, engines, crawl, log)
	}

	// ── 2. Direct HTTP ──────────────────────────────────────────────
	if cfg.Fetch.TLSFingerprint && cfg.Fetch.Proxy != "" {
		log.Warn("fetch.tls_fingerprint is ignored when fetch.proxy is set")
	}
	httpEngine, err := NewHTTPEngine(cfg.Fetch)
	if err != nil {
		return nil, err
	}
	engines = append(engines, httpEngine)

	// ── 3. Headless browser ─────────────────────────────────────────
	if cfg.Browser.Enabled {
		engines = appendIfAvailable(ctx, engines, NewRodEngine(cfg.Browser, cfg.Fetch.UserAgent, log), log)
	}

	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.Name()
	}
	log.Debug("engines ready", zap.Strings("engines", names))

	return engines, nil
}

func crawlEngine(cfg *config.Config) Engine {
	client := &http.Client{Timeout: cfg.Crawl.Timeout}
	switch cfg.Crawl.Provider {
	case config.ProviderCrawl4AI:
		return NewCrawl4AIEngine(cfg.Crawl.BaseURL, cfg.Crawl.APIKey, cfg.Fetch.UserAgent, client)
	case config.ProviderFirecrawl:
		return NewFirecrawlEngine(cfg.Crawl.APIKey, WithBaseURL(cfg.Crawl.BaseURL), WithHTTPClient(client))
	default:
		return nil
	}
}

// appendIfAvailable probes e when it implements Prober and appends it only
// when the probe succeeds.
func appendIfAvailable(ctx context.Context, engines []Engine, e Engine, log *zap.Logger) []Engine {
	p, ok := e.(Prober)
	if !ok {
		return append(engines, e)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := p.Probe(ctx); err != nil {
		log.Warn("engine unavailable, skipping", zap.String("engine", e.Name()), zap.Error(err))
		return engines
	}
	return append(engines, e)
}
