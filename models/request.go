package models

import "time"

// Output formats accepted by the clean stage.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// ScrapeRequest describes one fetch-convert-write invocation.
type ScrapeRequest struct {
	// URL is the target page. Required.
	URL string `json:"url"`

	// Filename is the output file name. ".md" is appended when it has no
	// extension. Derived from URL when empty.
	Filename string `json:"filename,omitempty"`

	// Dir is the destination directory, created if missing.
	// Default: "output".
	Dir string `json:"dir,omitempty"`

	// Timeout bounds each fetch strategy attempt. Zero uses the fetcher default.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Headers are sent with the page request by the HTTP-based strategies.
	Headers map[string]string `json:"headers,omitempty"`

	// Format selects the clean chain: "markdown" (default) or "text".
	Format string `json:"format,omitempty"`

	// Selector optionally narrows the markup to matching subtrees before cleaning.
	Selector string `json:"selector,omitempty"`

	// Exclude lists CSS selectors whose elements are removed before cleaning.
	Exclude []string `json:"exclude,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Dir == "" {
		r.Dir = "output"
	}
	if r.Format == "" {
		r.Format = FormatMarkdown
	}
}
