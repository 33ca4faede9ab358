package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/is-leeroy-jenkins/Soupy/cleaner"
	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/models"
)

// maxRedirects caps the redirect chain followed by HTTPEngine.
const maxRedirects = 10

// HTTPEngine is the direct strategy: one synchronous GET, no rendering.
type HTTPEngine struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection, so the
	// server must never be offered it.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine from the fetch configuration. When
// TLSFingerprint is set, TLS connections present a Chrome-like ClientHello.
func NewHTTPEngine(cfg config.FetchConfig) (*HTTPEngine, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2: false,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidConfig, "invalid fetch.proxy", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	if cfg.TLSFingerprint && cfg.Proxy == "" {
		transport.DialTLSContext = dialChromeTLS
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
	}, nil
}

// dialChromeTLS dials addr and performs a utls handshake with chromeH1Spec.
func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "http: apply tls spec")
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*models.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http: build request")
	}

	// Browser-like defaults; caller headers override them.
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range withUserAgent(req.Headers, e.userAgent) {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "http: do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http: status %d from %s", resp.StatusCode, resp.Request.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "http: read body")
	}
	markup := string(body)

	return models.NewResult(resp.Request.URL.String(), resp.StatusCode, cleaner.HTMLToText(markup),
		models.WithRawMarkup(markup),
		models.WithHeaders(models.HeadersFromHTTP(resp.Header)),
		models.WithTitle(extractTitle(markup)),
		models.WithStrategy(e.Name()),
	)
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			inTitle = string(tn) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
