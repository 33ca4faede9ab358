package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/logging"
	"github.com/is-leeroy-jenkins/Soupy/models"
	"github.com/is-leeroy-jenkins/Soupy/scraper"
)

var version = "dev"

// options holds the command-line flags.
type options struct {
	output        string
	dir           string
	timeout       time.Duration
	headers       []string
	format        string
	selector      string
	exclude       []string
	readability   bool
	headless      bool
	noFrontMatter bool
	stdout        bool
	configPath    string
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts options
		cfg  *config.Config
		log  *zap.Logger
	)

	cmd := &cobra.Command{
		Use:     "soupy [flags] <url>",
		Short:   "Fetch a web page and save it as clean Markdown",
		Version: version,
		Long: `soupy fetches one page through an ordered list of strategies
(rendered crawl service, direct HTTP, headless browser), converts it to
Markdown or plain text and writes the result to a file.`,
		Example: `  # Save a page to output/example-com-docs.md
  soupy https://example.com/docs

  # Plain text of the main article, printed to stdout
  soupy -f text --readability --stdout https://example.com/post

  # Only the content area, with a cookie
  soupy --selector "#content" -H "Cookie: session=abc" -o page https://example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &opts, loaded); err != nil {
				return err
			}
			cfg = loaded

			log, err = logging.New(cfg.Log)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = log.Sync() }()
			return run(cmd.Context(), cmd, &opts, cfg, log, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output file name (derived from the URL if empty)")
	f.StringVarP(&opts.dir, "dir", "d", "", "Output directory (default from config: output)")
	f.DurationVarP(&opts.timeout, "timeout", "t", 0, "Per-strategy timeout (default from config: 10s)")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, `Request header "Key: Value" (repeatable)`)
	f.StringVarP(&opts.format, "format", "f", "", "Output format: markdown or text")
	f.StringVar(&opts.selector, "selector", "", "CSS selector to keep before cleaning")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "CSS selectors to remove before cleaning")
	f.BoolVar(&opts.readability, "readability", false, "Try readability first for text output")
	f.BoolVar(&opts.headless, "headless", false, "Enable the headless browser strategy")
	f.BoolVar(&opts.noFrontMatter, "no-front-matter", false, "Omit the YAML header")
	f.BoolVar(&opts.stdout, "stdout", false, "Print the content instead of writing a file")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// applyFlags layers explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("dir") {
		cfg.Output.Dir = opts.dir
	}
	if changed("timeout") {
		cfg.Fetch.Timeout = opts.timeout
	}
	if changed("format") {
		cfg.Clean.Format = opts.format
	}
	if changed("selector") {
		cfg.Clean.Selector = opts.selector
	}
	if changed("exclude") {
		cfg.Clean.Exclude = opts.exclude
	}
	if changed("readability") {
		cfg.Clean.Readability = opts.readability
	}
	if changed("headless") {
		cfg.Browser.Enabled = opts.headless
	}
	if changed("no-front-matter") {
		cfg.Output.FrontMatter = !opts.noFrontMatter
	}
	return cfg.Validate()
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, cfg *config.Config, log *zap.Logger, target string) error {
	// ── 1. Signal handling ──────────────────────────────────────────
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 2. Build engines, fetcher and scraper ───────────────────────
	sc, err := scraper.FromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	req := &models.ScrapeRequest{
		URL:      target,
		Filename: opts.output,
		Dir:      cfg.Output.Dir,
		Timeout:  cfg.Fetch.Timeout,
		Headers:  headers,
		Format:   cfg.Clean.Format,
		Selector: cfg.Clean.Selector,
		Exclude:  cfg.Clean.Exclude,
	}

	// ── 3. Convert only ─────────────────────────────────────────────
	if opts.stdout {
		resp, err := sc.Convert(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(resp.Content, "\n"))
		return nil
	}

	// ── 4. Scrape and write ─────────────────────────────────────────
	resp, err := sc.Scrape(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Path)
	return nil
}

// parseHeaders parses repeated "Key: Value" flags.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, models.NewScrapeError(models.ErrCodeInvalidArgument,
				fmt.Sprintf("invalid header %q", h), eris.New(`expected "Key: Value"`))
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
