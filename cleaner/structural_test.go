package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralConverter(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "heading paragraph list",
			markup: "<h2>Title</h2><p>Body text</p><ul><li>One</li></ul>",
			want:   "## Title\n\nBody text\n\n- One",
		},
		{
			name:   "script only",
			markup: "<script>alert(1)</script>",
			want:   "",
		},
		{
			name:   "heading levels",
			markup: "<h1>A</h1><h4>B</h4>",
			want:   "# A\n\n#### B",
		},
		{
			name:   "blockquote",
			markup: "<blockquote>Quoted words</blockquote>",
			want:   "> Quoted words",
		},
		{
			name:   "noise subtrees removed",
			markup: "<p>Keep</p><form><p>Drop</p></form><svg><text>vector</text></svg><iframe>frame</iframe>",
			want:   "Keep",
		},
		{
			name:   "nested code emits both blocks",
			markup: "<pre><code>x := 1</code></pre>",
			want:   "x := 1\n\nx := 1",
		},
		{
			name:   "no blocks falls back to body text",
			markup: "<div>Alpha</div><span>Beta</span>",
			want:   "Alpha\nBeta",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StructuralConverter{}.Apply(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 3, headingLevel("h3"))
	assert.Equal(t, defaultHeadingLevel, headingLevel("hx"))
}

func TestStructuralConverterScriptOnlyFailsInChain(t *testing.T) {
	_, err := NewChain("markdown conversion", StructuralConverter{}).Run("<script>alert(1)</script>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StructuralConverter: empty result")
}
