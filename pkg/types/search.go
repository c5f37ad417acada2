// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SearchHit is one raw result returned by a search provider. Hits are
// consumed by the curation pipeline and never stored verbatim.
type SearchHit struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the page address.
	URL string `json:"url" yaml:"url"`

	// RawContent is the provider's snippet or crawled body, possibly with markup.
	RawContent string `json:"content" yaml:"content"`

	// RelevanceScore is the provider's relevance score; higher is better.
	RelevanceScore float64 `json:"score" yaml:"score"`
}

// CuratedFragment is a hit that survived cleaning, extraction, and the
// quality gate.
type CuratedFragment struct {
	Title              string  `json:"title" yaml:"title"`
	URL                string  `json:"url" yaml:"url"`
	EducationalContent string  `json:"educational_content" yaml:"educational_content"`
	Score              float64 `json:"score" yaml:"score"`
}

// NewCuratedFragment builds a fragment from a hit and its extracted
// educational text. The text is trimmed and cut to at most maxRunes runes;
// empty text is rejected.
func NewCuratedFragment(hit SearchHit, content string, maxRunes int) (CuratedFragment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return CuratedFragment{}, fmt.Errorf("fragment for %q has no educational content", hit.URL)
	}
	if maxRunes > 0 {
		content = TruncateRunes(content, maxRunes)
	}
	return CuratedFragment{
		Title:              hit.Title,
		URL:                hit.URL,
		EducationalContent: content,
		Score:              hit.RelevanceScore,
	}, nil
}

// TruncateRunes returns s cut to at most n runes. It never splits a
// multi-byte character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
