package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	markup := `<html><head><style>p { color: red }</style><script>var a = "<p>";</script></head>
<body><h1>Title</h1><p>Hello   <b>big</b> world</p><div>a&amp;b</div></body></html>`

	assert.Equal(t, "Title\nHello big world\na&b", HTMLToText(markup))
}

func TestHTMLToTextEmpty(t *testing.T) {
	assert.Empty(t, HTMLToText(""))
	assert.Empty(t, HTMLToText("<script>only()</script>"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("abcdefghi"))
}
