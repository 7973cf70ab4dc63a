// Package richtext flattens the editor's structured document tree into plain
// text for indexing.
package richtext

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// ContentSlice caps the indexed body length and the fuzzy scan window.
	ContentSlice = 10000
	// SummarySlice is the length of the summary derived from content when the
	// post has none.
	SummarySlice = 200
)

// Node is one element of an editor document: a doc, paragraph, heading,
// text run and so on. Only Text and Content matter for indexing.
type Node struct {
	Type    string         `json:"type,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
}

// Parse decodes a stored content_json value. Empty input and JSON null both
// yield a nil document.
func Parse(raw []byte) (*Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var n *Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("failed to decode content document: %w", err)
	}
	return n, nil
}

// Flatten concatenates the text of every node depth-first, each node's
// contribution followed by a single space. A nil document flattens to "".
func Flatten(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	flatten(&b, n)
	return b.String()
}

func flatten(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	b.WriteString(n.Text)
	for _, child := range n.Content {
		flatten(b, child)
	}
	b.WriteByte(' ')
}

// Truncate returns at most max characters of s, counted in runes so a
// multi-byte character is never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// FallbackSummary keeps a non-blank summary as is and otherwise derives one
// from the first SummarySlice characters of content.
func FallbackSummary(summary, content string) string {
	if strings.TrimSpace(summary) != "" {
		return summary
	}
	return Truncate(content, SummarySlice)
}
