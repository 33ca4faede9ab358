package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// DefaultUserAgent is attached by the HTTP-based strategies when the caller
// supplies no User-Agent of their own.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DefaultFirecrawlURL is used when crawl.provider is firecrawl and no base URL is set.
const DefaultFirecrawlURL = "https://api.firecrawl.dev/v1"

// Crawl providers.
const (
	ProviderNone      = ""
	ProviderCrawl4AI  = "crawl4ai"
	ProviderFirecrawl = "firecrawl"
)

// Browser wait strategies.
const (
	WaitNetworkIdle = "network-idle"
	WaitDOMStable   = "dom-stable"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Browser BrowserConfig `mapstructure:"browser"`
	Clean   CleanConfig   `mapstructure:"clean"`
	Output  OutputConfig  `mapstructure:"output"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // default: "info"
	Format string `mapstructure:"format"` // "json" or "console"; default: "console"
}

// FetchConfig controls the direct HTTP strategy and the fetcher defaults.
type FetchConfig struct {
	// Timeout is the per-attempt budget when the caller gives none.
	Timeout time.Duration `mapstructure:"timeout"` // default: 10s

	// UserAgent is the default identifying header.
	UserAgent string `mapstructure:"user_agent"`

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"` // default: 10 MB

	// TLSFingerprint dials TLS with a Chrome-like ClientHello. It has no
	// effect when Proxy is set: proxied connections use the standard TLS
	// dialer, and a warning is logged at startup.
	TLSFingerprint bool `mapstructure:"tls_fingerprint"` // default: true

	// Proxy is an optional proxy URL for the direct strategy.
	Proxy string `mapstructure:"proxy"`

	// Headers are sent with every fetch. Per-call headers win on conflict.
	// Keys read from a file are lower-cased by the loader.
	Headers map[string]string `mapstructure:"headers"`
}

// CrawlConfig selects an optional third-party rendered-crawl service.
type CrawlConfig struct {
	Provider string        `mapstructure:"provider"` // "", "crawl4ai" or "firecrawl"
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"` // default: 60s
}

// BrowserConfig controls the headless render strategy.
type BrowserConfig struct {
	// Enabled must be set explicitly; the headless strategy is never implied.
	Enabled bool `mapstructure:"enabled"`

	// Bin overrides the Chromium binary path.
	Bin string `mapstructure:"bin"`

	Headless  bool `mapstructure:"headless"`   // default: true
	NoSandbox bool `mapstructure:"no_sandbox"` // needed in Docker
	Stealth   bool `mapstructure:"stealth"`

	// Wait is "network-idle" (default) or "dom-stable".
	Wait string `mapstructure:"wait"`

	// Idle is how long the network must stay quiet.
	Idle time.Duration `mapstructure:"idle"` // default: 500ms

	// BlockedResources lists resource types to drop, e.g. "Image", "Font".
	BlockedResources []string `mapstructure:"blocked_resources"`

	// Timeout is the render budget when the caller gives none.
	Timeout time.Duration `mapstructure:"timeout"` // default: 15s
}

// CleanConfig controls the extraction and conversion chains.
type CleanConfig struct {
	Format      string   `mapstructure:"format"` // "markdown" or "text"
	Readability bool     `mapstructure:"readability"`
	Selector    string   `mapstructure:"selector"`
	Exclude     []string `mapstructure:"exclude"`
}

// OutputConfig controls the writer.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"` // default: "output"
	FrontMatter bool   `mapstructure:"front_matter"`
}

// Load reads configuration from defaults, an optional YAML file and
// SOUPY_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOUPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidConfig, "read config file", eris.Wrapf(err, "config: %s", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig, "decode config", eris.Wrap(err, "config: unmarshal"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are all well-typed; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.max_body_bytes", int64(10<<20))
	v.SetDefault("fetch.tls_fingerprint", true)
	v.SetDefault("fetch.proxy", "")

	v.SetDefault("crawl.provider", ProviderNone)
	v.SetDefault("crawl.base_url", "")
	v.SetDefault("crawl.api_key", "")
	v.SetDefault("crawl.timeout", 60*time.Second)

	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.wait", WaitNetworkIdle)
	v.SetDefault("browser.idle", 500*time.Millisecond)
	v.SetDefault("browser.blocked_resources", []string{})
	v.SetDefault("browser.timeout", 15*time.Second)

	v.SetDefault("clean.format", models.FormatMarkdown)
	v.SetDefault("clean.readability", false)
	v.SetDefault("clean.selector", "")
	v.SetDefault("clean.exclude", []string{})

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.front_matter", true)
}

// Validate checks cross-field constraints and fills provider defaults.
func (c *Config) Validate() error {
	switch c.Crawl.Provider {
	case ProviderNone:
	case ProviderCrawl4AI:
		if c.Crawl.BaseURL == "" {
			return invalid("crawl.base_url is required for provider crawl4ai")
		}
	case ProviderFirecrawl:
		if c.Crawl.APIKey == "" {
			return invalid("crawl.api_key is required for provider firecrawl")
		}
		if c.Crawl.BaseURL == "" {
			c.Crawl.BaseURL = DefaultFirecrawlURL
		}
	default:
		return invalid(fmt.Sprintf("unknown crawl.provider %q", c.Crawl.Provider))
	}

	switch c.Browser.Wait {
	case WaitNetworkIdle, WaitDOMStable:
	default:
		return invalid(fmt.Sprintf("unknown browser.wait %q", c.Browser.Wait))
	}

	switch c.Clean.Format {
	case models.FormatMarkdown, models.FormatText:
	default:
		return invalid(fmt.Sprintf("unknown clean.format %q", c.Clean.Format))
	}

	if c.Fetch.Timeout <= 0 || c.Crawl.Timeout <= 0 || c.Browser.Timeout <= 0 {
		return invalid("timeouts must be positive")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return invalid("fetch.max_body_bytes must be positive")
	}
	return nil
}

func invalid(msg string) error {
	return models.NewScrapeError(models.ErrCodeInvalidConfig, msg, nil)
}
