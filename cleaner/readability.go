package cleaner

import (
	"fmt"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and let the next strategy run.
const minContentLength = 50

// ReadabilityExtractor runs the Mozilla Readability algorithm and returns the
// article's plain text.
type ReadabilityExtractor struct {
	pageURL *nurl.URL
}

// NewReadabilityExtractor creates a ReadabilityExtractor that resolves
// relative references against pageURL.
func NewReadabilityExtractor(pageURL string) *ReadabilityExtractor {
	u, err := nurl.Parse(pageURL)
	if err != nil || u.Host == "" {
		return &ReadabilityExtractor{}
	}
	return &ReadabilityExtractor{pageURL: u}
}

func (e *ReadabilityExtractor) Name() string { return "ReadabilityExtractor" }

func (e *ReadabilityExtractor) Apply(markup string) (string, error) {
	if e.pageURL == nil {
		return "", eris.New("readability: no valid page URL")
	}
	article, err := readability.FromReader(strings.NewReader(markup), e.pageURL)
	if err != nil {
		return "", eris.Wrap(err, "readability: extraction failed")
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minContentLength {
		return "", fmt.Errorf("readability: extracted content too short (%d chars)", len(text))
	}
	return text, nil
}
