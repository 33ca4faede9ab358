package scraper

import (
	"context"

	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/engine"
	"github.com/is-leeroy-jenkins/Soupy/writer"
)

// FromConfig wires the engines, fallback fetcher and writer described by cfg.
// Optional engines are probed here, once.
func FromConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Scraper, error) {
	if log == nil {
		log = zap.NewNop()
	}

	engines, err := engine.BuildEngines(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	fetcher := engine.NewFetcher(engines,
		engine.WithLogger(log),
		engine.WithDefaultTimeout(cfg.Fetch.Timeout),
		engine.WithHeaders(cfg.Fetch.Headers),
	)
	log.Info("fetcher ready", zap.Strings("engines", fetcher.Engines()))
	w := writer.New(writer.WithFrontMatter(cfg.Output.FrontMatter))

	return New(fetcher, w,
		WithLogger(log),
		WithReadability(cfg.Clean.Readability),
	), nil
}
