package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// parseDocument parses markup into a fresh goquery document owned by the caller.
func parseDocument(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, eris.Wrap(err, "parse markup")
	}
	return doc, nil
}

// ParagraphExtractor concatenates the visible text of every <p> in document
// order. Paragraphs are joined with no separator, so "<p>A</p><p>B</p>"
// yields "AB".
type ParagraphExtractor struct{}

func (ParagraphExtractor) Name() string { return "ParagraphExtractor" }

func (ParagraphExtractor) Apply(markup string) (string, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		b.WriteString(visibleText(p, " "))
	})
	return b.String(), nil
}

// ArticleExtractor returns the visible text of the first <article>, or of the
// whole document when there is none.
type ArticleExtractor struct{}

func (ArticleExtractor) Name() string { return "ArticleExtractor" }

func (ArticleExtractor) Apply(markup string) (string, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	if article := doc.Find("article").First(); article.Length() > 0 {
		return visibleText(article, " "), nil
	}
	return visibleText(doc.Selection, " "), nil
}

// DocumentTextExtractor returns every visible line of the document, trimmed,
// with blank lines dropped and a blank line between the rest.
type DocumentTextExtractor struct{}

func (DocumentTextExtractor) Name() string { return "DocumentTextExtractor" }

func (DocumentTextExtractor) Apply(markup string) (string, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, n := range doc.Nodes {
		walkText(n, func(s string) {
			for _, line := range strings.Split(s, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		})
	}
	return strings.Join(lines, "\n\n"), nil
}
