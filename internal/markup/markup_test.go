// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Hello there!\nSecond line", "Hello there!\nSecond line"},
		{"less-than sign", "2 < 3 and 5 <3", "2 < 3 and 5 <3"},
		{"bold and break", "<strong>Great job!</strong><br>You got it.", "**Great job!**  \nYou got it."},
		{"paragraphs", "<p>Hello</p><p>World</p>", "Hello\n\nWorld"},
		{"unordered list", "<ul><li>One</li><li>Two</li></ul>", "- One\n- Two"},
		{"ordered list", "<ol><li>One</li><li>Two</li></ol>", "1. One\n2. Two"},
		{"link", `Go <a href="/ai/quiz/">Start</a> now`, "Go [Start](/ai/quiz/) now"},
		{"anchor link", `<a href="#top">Top</a>`, "[Top]"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"script dropped", "<p>Hi</p><script>alert(1)</script>", "Hi"},
		{"whitespace collapsed", "<p>Hello\n     world</p>", "Hello world"},
		{"heading", "<h2>Atoms</h2>Tiny things", "## Atoms\n\nTiny things"},
		{"emphasis", "<em>really</em> small", "*really* small"},
		{"inline code", "Use <code>H2O</code>", "Use `H2O`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMarkdown(tt.in))
		})
	}
}

func TestToMarkdown_LongOrderedList(t *testing.T) {
	var in strings.Builder
	var want []string
	in.WriteString("<ol>")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&in, "<li>Step %d</li>", i)
		want = append(want, fmt.Sprintf("%d. Step %d", i, i))
	}
	in.WriteString("</ol>")

	assert.Equal(t, strings.Join(want, "\n"), ToMarkdown(in.String()))
}

func TestToMarkdown_PreformattedKept(t *testing.T) {
	got := ToMarkdown("<pre><code>x := 1\n    y := 2</code></pre>")
	assert.Equal(t, "```\nx := 1\n    y := 2\n```", got)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hi\nthere", PlainText("<strong>Hi</strong><br>there"))
	assert.Equal(t, "plain", PlainText("plain"))
	assert.Equal(t, "a\nb", PlainText("<ul><li>a</li><li>b</li></ul>"))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<b>x</b>"))
	assert.True(t, LooksLikeHTML("a &amp; b"))
	assert.False(t, LooksLikeHTML("a < b"))
	assert.False(t, LooksLikeHTML("no markup"))
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer(StyleNoTTY, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, r.Width())

	out := r.RenderHTML("<strong>Quiz time</strong>")
	assert.Contains(t, out, "Quiz time")
	assert.NotContains(t, out, "<strong>")
}

func TestRenderer_NilPassesThrough(t *testing.T) {
	var r *Renderer
	assert.Equal(t, "**x**", r.Render("**x**"))
	assert.Equal(t, 0, r.Width())
}
