package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/logging"
	"github.com/is-leeroy-jenkins/Soupy/models"
	"github.com/is-leeroy-jenkins/Soupy/scraper"
)

// pipeline is the part of *scraper.Scraper the tool handler needs.
type pipeline interface {
	Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error)
	Convert(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error)
}

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load(os.Getenv("SOUPY_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// ── 3. Build the pipeline (probes optional engines once) ────────
	sc, err := scraper.FromConfig(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to build pipeline", zap.Error(err))
		os.Exit(1)
	}

	// ── 4. Register tools and serve on stdio ────────────────────────
	s := server.NewMCPServer(
		"soupy",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	s.AddTool(fetchPageTool(), handleFetchPage(sc, cfg))

	if err := server.ServeStdio(s); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func fetchPageTool() mcp.Tool {
	return mcp.NewTool("fetch_page",
		mcp.WithDescription("Fetch a web page and return its content as clean Markdown or plain text. Falls back from a rendered crawl service to direct HTTP to a headless browser, depending on configuration."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to fetch"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'text'"),
			mcp.Enum(models.FormatMarkdown, models.FormatText),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Per-strategy timeout in seconds (default from config: 10)"),
		),
		mcp.WithString("filename",
			mcp.Description("When set, also save the content to this file and return its path"),
		),
		mcp.WithString("dir",
			mcp.Description("Directory for filename (default from config: output)"),
		),
	)
}

func handleFetchPage(p pipeline, cfg *config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil || strings.TrimSpace(url) == "" {
			return mcp.NewToolResultError("url is required"), nil
		}

		req := &models.ScrapeRequest{
			URL:      url,
			Filename: request.GetString("filename", ""),
			Dir:      request.GetString("dir", cfg.Output.Dir),
			Format:   request.GetString("format", cfg.Clean.Format),
			Timeout:  cfg.Fetch.Timeout,
			Selector: cfg.Clean.Selector,
			Exclude:  cfg.Clean.Exclude,
		}
		if secs := request.GetFloat("timeout_seconds", 0); secs > 0 {
			req.Timeout = time.Duration(secs * float64(time.Second))
		}

		if req.Filename == "" {
			resp, err := p.Convert(ctx, req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(resp.Content), nil
		}

		resp, err := p.Scrape(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved to %s\n\n%s", resp.Path, resp.Content)), nil
	}
}
