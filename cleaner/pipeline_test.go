package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

const pageWithNav = `<nav><p>Menu</p></nav><article><p>Story</p></article>`

func TestCleanMarkdown(t *testing.T) {
	got, err := New(Options{}).Clean("<h2>Title</h2><p>Body text</p><ul><li>One</li></ul>", models.FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, got, "## Title")
	assert.Contains(t, got, "Body text")
	assert.Contains(t, got, "One")
}

func TestCleanText(t *testing.T) {
	got, err := New(Options{}).Clean("<p>A</p><p>B</p>", models.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "AB", got)
}

func TestCleanSelector(t *testing.T) {
	got, err := New(Options{Selector: "article"}).Clean(pageWithNav, models.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Story", got)
}

func TestCleanExclude(t *testing.T) {
	got, err := New(Options{Exclude: []string{"nav", " "}}).Clean(pageWithNav, models.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Story", got)
}

func TestCleanInvalidSelector(t *testing.T) {
	_, err := New(Options{Selector: "[["}).Clean(pageWithNav, models.FormatText)
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidArgument))
}

func TestCleanUnknownFormat(t *testing.T) {
	_, err := New(Options{}).Clean(pageWithNav, "pdf")
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidArgument))
}

func TestCleanTextAllFailed(t *testing.T) {
	_, err := New(Options{}).Clean("<script>x()</script>", models.FormatText)
	se := asScrapeError(t, err)
	assert.Equal(t, models.ErrCodeAllStrategiesFailed, se.Code)
	assert.Len(t, se.Diagnostics, 3)
}

func TestTextChainOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"ReadabilityExtractor", "ParagraphExtractor", "ArticleExtractor", "DocumentTextExtractor"},
		NewTextChain(Options{Readability: true}).Strategies())
	assert.Equal(t,
		[]string{"ParagraphExtractor", "ArticleExtractor", "DocumentTextExtractor"},
		NewTextChain(Options{}).Strategies())
	assert.Equal(t,
		[]string{"LibraryConverter", "StructuralConverter"},
		NewMarkdownChain(Options{}).Strategies())
}
