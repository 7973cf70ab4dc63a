package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_BlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		_, ok := Build(text, []string{"x"}, "x")
		assert.False(t, ok, "text %q", text)
	}

	got, ok := Build(" a ", nil, "")
	assert.True(t, ok)
	assert.Equal(t, " a ", got)
}

func TestBuild_NoTermsReturnsPrefix(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30)

	got, ok := Build(text, nil, "")

	require.True(t, ok)
	assert.Equal(t, text[:Slice], got)
	assert.NotContains(t, got, "<mark>")
}

func TestBuild_NoTermsPrefixIsEscaped(t *testing.T) {
	got, ok := Build(`a < b && "c" 'd'`, nil, "")

	require.True(t, ok)
	assert.Equal(t, "a &lt; b &amp;&amp; &quot;c&quot; &#39;d&#39;", got)

	got, ok = Build(strings.Repeat("&", Slice+50), nil, "")
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("&amp;", Slice), got)
}

func TestBuild_FallbackTermUsedWhenNoTerms(t *testing.T) {
	got, ok := Build("Hello World", nil, "world")

	require.True(t, ok)
	assert.Equal(t, "Hello <mark>World</mark>", got)
}

func TestBuild_EngineTermsTakePrecedence(t *testing.T) {
	got, ok := Build("alpha beta gamma", []string{"gamma"}, "alpha")

	require.True(t, ok)
	assert.Equal(t, "alpha beta <mark>gamma</mark>", got)
}

func TestBuild_ExpandsToEnclosingWord(t *testing.T) {
	got, ok := Build("this is a category page", []string{"cat"}, "")

	require.True(t, ok)
	assert.Equal(t, "this is a <mark>category</mark> page", got)

	span, found := Locate([]rune("this is a category page"), []string{"cat"})
	require.True(t, found)
	assert.Equal(t, MatchSpan{Idx: 10, Len: 8, Token: "category"}, span)
}

func TestLocate_FirstTermInListOrderWins(t *testing.T) {
	span, found := Locate([]rune("zeta appears before alpha"), []string{"alpha", "zeta"})

	require.True(t, found)
	assert.Equal(t, "alpha", span.Token)
}

func TestLocate_LeftmostOccurrence(t *testing.T) {
	span, found := Locate([]rune("Go go GO"), []string{"go"})

	require.True(t, found)
	assert.Equal(t, 0, span.Idx)
	assert.Equal(t, "Go", span.Token)
}

func TestLocate_ExactMatchBeatsEarlierFuzzyMatch(t *testing.T) {
	span, found := Locate([]rune("wrld then world"), []string{"world"})

	require.True(t, found)
	assert.Equal(t, MatchSpan{Idx: 10, Len: 5, Token: "world"}, span)

	got, ok := Build("wrld then world", []string{"world"}, "")
	require.True(t, ok)
	assert.Equal(t, "wrld then <mark>world</mark>", got)
}

func TestLocate_ExactPassIsCaseInsensitive(t *testing.T) {
	span, found := Locate([]rune("Learning RUST today"), []string{"rust"})

	require.True(t, found)
	assert.Equal(t, "RUST", span.Token)
}

func TestLocate_ApproximateMatch(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		term  string
		token string
	}{
		{name: "substitution", text: "a quick brawn fox", term: "brown", token: "brawn"},
		{name: "deletion in text", text: "the wrld is big", term: "world", token: "wrld"},
		{name: "insertion in text", text: "a colourr scheme", term: "colour", token: "colourr"},
		{name: "expanded to word", text: "some helo-world demo", term: "hello", token: "helo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, found := Locate([]rune(tt.text), []string{tt.term})
			require.True(t, found)
			assert.Equal(t, tt.token, span.Token)
		})
	}
}

func TestLocate_ApproximateRequiresSameFirstCharacter(t *testing.T) {
	// "morld" is one edit from "world" but starts with another letter.
	_, found := Locate([]rune("hello morld"), []string{"world"})
	assert.False(t, found)

	got, ok := Build("hello morld", []string{"world"}, "")
	require.True(t, ok)
	assert.Equal(t, "hello morld", got)
}

func TestLocate_ApproximateRejectsDistanceTwo(t *testing.T) {
	_, found := Locate([]rune("the wxrxd spins"), []string{"world"})
	assert.False(t, found)
}

func TestLocate_ScanLimit(t *testing.T) {
	text := []rune(strings.Repeat(" ", 20000))
	copy(text[10050:], []rune("wrld"))

	_, found := Locate(text, []string{"world"})
	assert.False(t, found, "approximate pass must not look past ScanLimit")

	copy(text[10050:], []rune("world"))
	span, found := Locate(text, []string{"world"})
	require.True(t, found, "exact pass scans the whole text")
	assert.Equal(t, 10050, span.Idx)
}

func TestBuild_ContextWindow(t *testing.T) {
	text := strings.Repeat("x", 100) + " needle " + strings.Repeat("y", 100)

	got, ok := Build(text, []string{"needle"}, "")

	require.True(t, ok)
	want := strings.Repeat("x", 59) + " <mark>needle</mark> " + strings.Repeat("y", 59)
	assert.Equal(t, want, got)
}

func TestBuild_EscapesHTML(t *testing.T) {
	got, ok := Build(`<b>"Tom" & 'Jerry'</b>`, []string{"tom"}, "")

	require.True(t, ok)
	assert.Equal(t, "&lt;b&gt;&quot;<mark>Tom</mark>&quot; &amp; &#39;Jerry&#39;&lt;/b&gt;", got)
}

func TestBuild_TermWithSpecialCharacters(t *testing.T) {
	got, ok := Build("use c++ & go", []string{"c++"}, "")

	require.True(t, ok)
	assert.Equal(t, "use <mark>c++</mark> &amp; go", got)
}

func TestBuild_HighlightNeverSplitsEntity(t *testing.T) {
	got, ok := Build("ampere & amp", []string{"amp"}, "")

	require.True(t, ok)
	assert.Equal(t, "<mark>ampere</mark> &amp; <mark>amp</mark>", got)
}

func TestBuild_HighlightsEveryOccurrenceInExcerpt(t *testing.T) {
	got, ok := Build("go and Go and GO", []string{"go"}, "")

	require.True(t, ok)
	assert.Equal(t, "<mark>go</mark> and <mark>Go</mark> and <mark>GO</mark>", got)
}

func TestBuild_NoMatchFallsBackToPrefix(t *testing.T) {
	text := strings.Repeat("q", 300)

	got, ok := Build(text, []string{"zzz"}, "")

	require.True(t, ok)
	assert.Equal(t, strings.Repeat("q", Slice), got)
}

func TestBuild_UnicodeWords(t *testing.T) {
	got, ok := Build("Xin chào thế giới", []string{"thế"}, "")

	require.True(t, ok)
	assert.Equal(t, "Xin chào <mark>thế</mark> giới", got)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"world", "world", 0},
		{"wrld", "world", 1},
		{"worlds", "world", 1},
		{"warld", "world", 1},
		{"wxrxd", "world", 2},
		{"w", "world", 2},
		{"", "", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, distance([]rune(tt.a), []rune(tt.b), 1), "%q vs %q", tt.a, tt.b)
	}
}
