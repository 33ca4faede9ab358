package engine

import (
	"context"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/cleaner"
	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/models"
)

// RodEngine renders the page in a headless Chromium. Every Fetch launches its
// own browser and tears it down before returning, so no state is shared
// between calls.
type RodEngine struct {
	cfg       config.BrowserConfig
	userAgent string
	log       *zap.Logger
}

// NewRodEngine creates a RodEngine. userAgent is sent when the caller gives
// no User-Agent header.
func NewRodEngine(cfg config.BrowserConfig, userAgent string, log *zap.Logger) *RodEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &RodEngine{cfg: cfg, userAgent: userAgent, log: log}
}

func (e *RodEngine) Name() string {
	if e.cfg.Stealth {
		return "rod-stealth"
	}
	return "rod"
}

// Probe checks that a Chromium binary is available.
func (e *RodEngine) Probe(context.Context) error {
	if e.cfg.Bin != "" {
		if _, err := os.Stat(e.cfg.Bin); err != nil {
			return models.NewDependencyUnavailable("chromium", err)
		}
		return nil
	}
	if _, ok := launcher.LookPath(); !ok {
		return models.NewDependencyUnavailable("chromium", eris.New("no browser binary found on this system"))
	}
	return nil
}

// Fetch renders req.URL and returns the page as the browser sees it.
//
// Ordering constraints:
//   - Stealth JS, headers and the hijack router are installed before
//     Navigate; they only affect navigations that start afterwards.
//   - The network idle waiter is created before Navigate, otherwise in-flight
//     requests are missed and the wait returns at once.
func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error) {
	// ── 1. Launch ─────────────────────────────────────────────────────
	l := e.launcher(ctx)
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "rod: launch browser")
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, eris.Wrap(err, "rod: connect to browser")
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, eris.Wrap(err, "rod: open page")
	}
	defer func() { _ = page.Close() }()

	// ── 2. Stealth injection ──────────────────────────────────────────
	if e.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			e.log.Warn("stealth injection failed, proceeding without stealth", zap.Error(err))
		}
	}

	// ── 3. Identity and headers ───────────────────────────────────────
	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}
	if !hasHeader(headers, "User-Agent") && e.userAgent != "" {
		if err := (proto.NetworkSetUserAgentOverride{UserAgent: e.userAgent}).Call(page); err != nil {
			e.log.Debug("user agent override failed", zap.Error(err))
		}
	}
	if len(headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(page); err != nil {
			return nil, eris.Wrap(err, "rod: set headers")
		}
	}

	// ── 4. Resource blocking ──────────────────────────────────────────
	router := setupHijack(page, e.cfg.BlockedResources)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 5. Bind context and render budget ─────────────────────────────
	p := page.Context(ctx)
	if e.cfg.Timeout > 0 {
		p = p.Timeout(e.cfg.Timeout)
	}

	// ── 6. Idle waiter before navigation ──────────────────────────────
	// WaitRequestIdle uses the Fetch domain, which the hijack router also
	// claims, so blocking forces the DOM-stable wait.
	var waitIdle func()
	if e.cfg.Wait != config.WaitDOMStable && router == nil {
		waitIdle = p.WaitRequestIdle(e.idle(), nil, nil, nil)
	}

	// ── 7. Navigate ───────────────────────────────────────────────────
	if err := p.Navigate(req.URL); err != nil {
		return nil, eris.Wrap(err, "rod: navigate")
	}

	// ── 8. Wait ───────────────────────────────────────────────────────
	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(e.idle(), 0.1); err != nil {
		e.log.Debug("DOM did not settle, using current DOM", zap.Error(err))
	}

	// ── 9. Extract ────────────────────────────────────────────────────
	markup, err := p.HTML()
	if err != nil {
		return nil, eris.Wrap(err, "rod: read html")
	}

	status := navigationStatus(p)
	if status == 0 {
		status = 200
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return models.NewResult(finalURL, status, cleaner.HTMLToText(markup),
		models.WithRawMarkup(markup),
		models.WithTitle(evalStringOrEmpty(p, `() => document.title`)),
		models.WithStrategy(e.Name()),
	)
}

// launcher builds the Chromium launcher with automation flags removed.
func (e *RodEngine) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(e.cfg.Headless).
		NoSandbox(e.cfg.NoSandbox)
	if e.cfg.Bin != "" {
		l = l.Bin(e.cfg.Bin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

func (e *RodEngine) idle() time.Duration {
	if e.cfg.Idle > 0 {
		return e.cfg.Idle
	}
	return 500 * time.Millisecond
}

// navigationStatus reads the main document status from the Navigation Timing
// entry. Zero means the browser did not report one.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates js and returns its string result, or "" on
// any error.
func evalStringOrEmpty(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders
// (map[string]gson.JSON).
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
