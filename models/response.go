package models

// ScrapeResponse is the outcome of a completed invocation.
type ScrapeResponse struct {
	// Path is the written file. Empty when the write step was skipped.
	Path string `json:"path,omitempty"`

	// Content is the cleaned output in the requested format.
	Content string `json:"content"`

	// Format is the chain that produced Content.
	Format string `json:"format"`

	// SourceURL is the final URL reported by the fetch strategy.
	SourceURL string `json:"source_url"`

	// StatusCode is the status reported by the fetch strategy (0 if unknown).
	StatusCode int `json:"status_code"`

	// Title is the document title, when the strategy could read one.
	Title string `json:"title,omitempty"`

	// EngineUsed names the fetch strategy that succeeded.
	EngineUsed string `json:"engine_used"`

	// Tokens estimates before and after cleaning.
	Tokens TokenInfo `json:"tokens"`

	// Timing breaks down where the time went.
	Timing TimingInfo `json:"timing"`
}

// TokenInfo holds rough token estimates for the raw and cleaned content.
type TokenInfo struct {
	OriginalEstimate int `json:"original_estimate"`
	CleanedEstimate  int `json:"cleaned_estimate"`
}

// TimingInfo provides a breakdown of where time was spent.
type TimingInfo struct {
	TotalMs    int64 `json:"total_ms"`
	FetchMs    int64 `json:"fetch_ms"`
	CleaningMs int64 `json:"cleaning_ms"`
}
