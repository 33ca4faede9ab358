package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// newMarkdownConverter builds the shared converter. Tables keep their
// columns with minimal cell padding; the base plugin drops non-content tags.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// imageSelector matches the elements dropped before library conversion.
const imageSelector = "img, picture"

// LibraryConverter converts markup to Markdown with html-to-markdown v2.
// Images are ignored and links preserved. The zero value has no converter
// and reports DEPENDENCY_UNAVAILABLE.
type LibraryConverter struct {
	conv   *converter.Converter
	domain string
}

// NewLibraryConverter creates a LibraryConverter. domain, when set, is used
// to resolve relative link targets into absolute URLs.
func NewLibraryConverter(domain string) *LibraryConverter {
	return &LibraryConverter{conv: newMarkdownConverter(), domain: domain}
}

func (c *LibraryConverter) Name() string { return "LibraryConverter" }

func (c *LibraryConverter) Apply(markup string) (string, error) {
	if c.conv == nil {
		return "", models.NewDependencyUnavailable("html-to-markdown converter", nil)
	}

	stripped, err := removeMatching(markup, imageSelector)
	if err != nil {
		return "", err
	}

	var out string
	if c.domain != "" {
		out, err = c.conv.ConvertString(stripped, converter.WithDomain(c.domain))
	} else {
		out, err = c.conv.ConvertString(stripped)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
