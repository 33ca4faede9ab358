package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// invisible holds elements whose text is never rendered.
var invisible = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// lineBreaking holds elements whose tag boundaries end a line in HTMLToText.
var lineBreaking = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// walkText calls fn for every text node under n, skipping invisible subtrees.
func walkText(n *html.Node, fn func(string)) {
	if n.Type == html.ElementNode && invisible[n.DataAtom] {
		return
	}
	if n.Type == html.TextNode {
		fn(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, fn)
	}
}

// visibleText returns the trimmed, non-empty text nodes under sel joined by sep.
func visibleText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		walkText(n, func(s string) {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		})
	}
	return strings.Join(parts, sep)
}

// HTMLToText flattens markup to plain text: script and style bodies are
// dropped, block tags (p, div, br, li, h1-h6) end a line, other tags become a
// space, and whitespace is collapsed within each line. Blank lines are removed.
func HTMLToText(markup string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseLines(b.String())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				switch tt {
				case html.StartTagToken:
					skip++
				case html.EndTagToken:
					if skip > 0 {
						skip--
					}
				}
				continue
			}
			if lineBreaking[a] {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// collapseLines squeezes runs of spaces and tabs, trims every line and drops
// the empty ones.
func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
