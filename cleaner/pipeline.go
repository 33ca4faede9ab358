package cleaner

import (
	"fmt"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// Options configures a Cleaner for one page.
type Options struct {
	// PageURL resolves relative links and feeds readability.
	PageURL string

	// Readability puts ReadabilityExtractor first in the text chain.
	Readability bool

	// Selector narrows the markup to matching subtrees before any chain runs.
	Selector string

	// Exclude removes matching elements before any chain runs.
	Exclude []string
}

// NewTextChain builds the extraction chain:
// [Readability] -> Paragraph -> Article -> DocumentText.
func NewTextChain(opts Options) *Chain {
	var strategies []Strategy
	if opts.Readability {
		strategies = append(strategies, NewReadabilityExtractor(opts.PageURL))
	}
	strategies = append(strategies,
		ParagraphExtractor{},
		ArticleExtractor{},
		DocumentTextExtractor{},
	)
	return NewChain("text extraction", strategies...)
}

// NewMarkdownChain builds the conversion chain: Library -> Structural.
func NewMarkdownChain(opts Options) *Chain {
	return NewChain("markdown conversion",
		NewLibraryConverter(opts.PageURL),
		StructuralConverter{},
	)
}

// Cleaner runs the pre-filters and then the chain for the requested format.
// A Cleaner holds no per-call state and is built once per page.
type Cleaner struct {
	opts     Options
	text     *Chain
	markdown *Chain
}

// New initialises a Cleaner with both chains.
func New(opts Options) *Cleaner {
	return &Cleaner{
		opts:     opts,
		text:     NewTextChain(opts),
		markdown: NewMarkdownChain(opts),
	}
}

// Chain returns the chain used for format.
func (c *Cleaner) Chain(format string) (*Chain, error) {
	switch format {
	case models.FormatMarkdown, "":
		return c.markdown, nil
	case models.FormatText:
		return c.text, nil
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown format %q", format), nil)
	}
}

// Clean converts markup into the requested format.
//
// Flow:
//  1. Apply the CSS selector (if provided).
//  2. Remove excluded elements (if provided).
//  3. Run the format's chain; the first non-empty output wins.
func (c *Cleaner) Clean(markup, format string) (string, error) {
	chain, err := c.Chain(format)
	if err != nil {
		return "", err
	}

	// ── 1. Selector ─────────────────────────────────────────────────
	filtered, err := ApplySelector(markup, c.opts.Selector)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInvalidArgument, "invalid selector", err)
	}

	// ── 2. Exclusions ───────────────────────────────────────────────
	// Unparseable markup is left for the chain to report.
	if out, err := Exclude(filtered, c.opts.Exclude); err == nil {
		filtered = out
	}

	// ── 3. Chain ────────────────────────────────────────────────────
	return chain.Run(filtered)
}
