package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// ApplySelector parses markup, matches elements against the given CSS
// selector group, and returns the concatenated outer HTML of all matches.
//
// An empty selector, or one that matches nothing, returns markup unchanged
// so the chains still have something to work with.
func ApplySelector(markup string, selector string) (string, error) {
	if strings.TrimSpace(selector) == "" {
		return markup, nil
	}
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return "", eris.Wrapf(err, "selector: parse %q", selector)
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", eris.Wrap(err, "selector: parse markup")
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return markup, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", eris.Wrap(err, "selector: render match")
		}
	}
	return buf.String(), nil
}
