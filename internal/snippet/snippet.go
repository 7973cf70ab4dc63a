// Package snippet locates the best match for a set of query terms inside a
// text and renders an HTML-safe excerpt with the match wrapped in <mark>.
//
// Matching runs in two passes. The exact pass looks for a case-insensitive
// substring of any term across the whole text. When that fails, the
// approximate pass slides windows of len(term)-1, len(term) and len(term)+1
// characters over the first ScanLimit characters and accepts the first
// window within FuzzyMaxDistance edits of the term that starts with the same
// letter. Either way the match is widened to the enclosing word before the
// excerpt is cut.
//
// Offsets and lengths are in runes.
package snippet

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/khoahotran/blog-search/internal/richtext"
)

const (
	// Slice is the length of the unhighlighted prefix returned when nothing matches.
	Slice = richtext.SummarySlice
	// Context is the number of characters kept on each side of a match.
	Context = 60
	// ScanLimit bounds the approximate pass.
	ScanLimit = richtext.ContentSlice
	// FuzzyMaxDistance is the largest accepted edit distance.
	FuzzyMaxDistance = 1
)

// MatchSpan is where the best match sits in a text, after widening to word
// boundaries.
type MatchSpan struct {
	Idx   int
	Len   int
	Token string
}

// Build renders the excerpt for text. terms are the terms the engine matched
// in this field; fallback (usually the raw query) is used when terms is
// empty. ok is false when text is blank. The result is always HTML-escaped,
// including the plain prefix returned when there is nothing to highlight; the
// prefix is cut to Slice runes before escaping.
func Build(text string, terms []string, fallback string) (fragment string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	candidates := terms
	if len(candidates) == 0 && fallback != "" {
		candidates = []string{fallback}
	}

	runes := []rune(text)
	if len(candidates) == 0 {
		return EscapeHTML(prefix(runes)), true
	}

	span, found := Locate(runes, candidates)
	if !found {
		return EscapeHTML(prefix(runes)), true
	}
	return render(runes, span, candidates), true
}

// Locate runs the exact pass and, if it finds nothing, the approximate pass.
func Locate(text []rune, terms []string) (MatchSpan, bool) {
	lower := lowerRunes(text)
	if span, ok := exactMatch(text, lower, terms); ok {
		return span, true
	}
	return approximateMatch(text, lower, terms)
}

func exactMatch(text, lower []rune, terms []string) (MatchSpan, bool) {
	for _, term := range terms {
		needle := lowerRunes([]rune(term))
		if len(needle) == 0 {
			continue
		}
		if idx := indexRunes(lower, needle); idx >= 0 {
			return expand(text, idx, len(needle)), true
		}
	}
	return MatchSpan{}, false
}

func approximateMatch(text, lower []rune, terms []string) (MatchSpan, bool) {
	scan := lower
	if len(scan) > ScanLimit {
		scan = scan[:ScanLimit]
	}

	for _, term := range terms {
		needle := lowerRunes([]rune(term))
		if len(needle) == 0 {
			continue
		}
		first := needle[0]
		for _, width := range [...]int{len(needle) - 1, len(needle), len(needle) + 1} {
			if width <= 0 {
				continue
			}
			for start := 0; start+width <= len(scan); start++ {
				if scan[start] != first {
					continue
				}
				if distance(scan[start:start+width], needle, FuzzyMaxDistance) <= FuzzyMaxDistance {
					return expand(text, start, width), true
				}
			}
		}
	}
	return MatchSpan{}, false
}

// expand widens [idx, idx+n) outward while the neighbouring rune is a word
// character.
func expand(text []rune, idx, n int) MatchSpan {
	start, end := idx, idx+n
	for start > 0 && isWordRune(text[start-1]) {
		start--
	}
	for end < len(text) && isWordRune(text[end]) {
		end++
	}
	return MatchSpan{Idx: start, Len: end - start, Token: string(text[start:end])}
}

func render(text []rune, span MatchSpan, terms []string) string {
	start := max(0, span.Idx-Context)
	end := min(len(text), span.Idx+span.Len+Context)
	escaped := EscapeHTML(string(text[start:end]))

	re := highlighter(span.Token, terms)
	if re == nil {
		return escaped
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(escaped, -1) {
		// group 1 is a term; otherwise the match is an entity and stays as is.
		if loc[2] < 0 {
			continue
		}
		b.WriteString(escaped[last:loc[2]])
		b.WriteString("<mark>")
		b.WriteString(escaped[loc[2]:loc[3]])
		b.WriteString("</mark>")
		last = loc[3]
	}
	b.WriteString(escaped[last:])
	return b.String()
}

// highlighter builds one case-insensitive alternation of the matched token
// and every candidate term. Parts are escaped for HTML first so they line up
// with the escaped excerpt, then quoted for the regexp. Entities produced by
// escaping are matched as a second alternative so a term never splits one.
func highlighter(token string, terms []string) *regexp.Regexp {
	parts := make([]string, 0, len(terms)+1)
	for _, p := range append([]string{token}, terms...) {
		if p == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(EscapeHTML(p)))
	}
	if len(parts) == 0 {
		return nil
	}
	re, err := regexp.Compile("(?i)(" + strings.Join(parts, "|") + ")|" + entityPattern)
	if err != nil {
		return nil
	}
	return re
}

const entityPattern = `&(?:amp|lt|gt|quot|#39);`

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes & < > " and '.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

func prefix(text []rune) string {
	if len(text) > Slice {
		return string(text[:Slice])
	}
	return string(text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.Is(unicode.Pc, r)
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
