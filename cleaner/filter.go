package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Exclude removes every element matching any of the given CSS selectors.
// Blank selectors are ignored. Markup that cannot be parsed is returned
// unchanged along with the error.
func Exclude(markup string, selectors []string) (string, error) {
	var kept []string
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return markup, nil
	}
	return removeMatching(markup, strings.Join(kept, ", "))
}

// removeMatching parses markup, removes the elements matching selector and
// renders the remaining document.
func removeMatching(markup, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup, eris.Wrap(err, "filter: parse markup")
	}
	doc.Find(selector).Remove()

	out, err := doc.Html()
	if err != nil {
		return markup, eris.Wrap(err, "filter: render markup")
	}
	return out, nil
}
