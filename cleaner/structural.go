package cleaner

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// noiseSelector matches subtrees that never carry readable content.
const noiseSelector = "script, style, noscript, svg, canvas, iframe, form"

// blockMatcher matches the blocks StructuralConverter emits, in document order.
var blockMatcher = cascadia.MustCompile("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, code")

// defaultHeadingLevel is used when a heading tag carries no numeric suffix.
const defaultHeadingLevel = 2

// StructuralConverter produces simple Markdown from headings, paragraphs,
// list items, blockquotes and code blocks without a conversion library.
// Nested matches (e.g. pre > code) each produce their own block.
type StructuralConverter struct{}

func (StructuralConverter) Name() string { return "StructuralConverter" }

func (StructuralConverter) Apply(markup string) (string, error) {
	// The document is private to this call, so removing nodes is safe.
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	doc.Find(noiseSelector).Remove()

	body := doc.Find("body")
	var blocks []string
	body.FindMatcher(blockMatcher).Each(func(_ int, el *goquery.Selection) {
		txt := visibleText(el, " ")
		if txt == "" {
			return
		}
		blocks = append(blocks, formatBlock(goquery.NodeName(el), txt))
	})

	if len(blocks) == 0 {
		return visibleText(body, "\n"), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}

// formatBlock renders one block's text according to its tag.
func formatBlock(tag, txt string) string {
	switch {
	case strings.HasPrefix(tag, "h"):
		return strings.Repeat("#", headingLevel(tag)) + " " + txt
	case tag == "li":
		return "- " + txt
	case tag == "blockquote":
		var lines []string
		for _, line := range strings.Split(txt, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, "> "+line)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return txt
	}
}

// headingLevel parses the numeric suffix of a heading tag ("h3" -> 3).
func headingLevel(tag string) int {
	if level, err := strconv.Atoi(tag[1:]); err == nil {
		return level
	}
	return defaultHeadingLevel
}
