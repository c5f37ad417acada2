// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// Extraction limits.
const (
	maxKeywordUnits  = 8
	maxFallbackUnits = 5
	minKeywordUnit   = 5  // a keyword unit must be longer than this, in runes
	minFallbackUnit  = 10 // a fallback unit must be longer than this, in runes
	fallbackPrefix   = 200
)

var sentenceBreak = regexp.MustCompile(`[。！？；.!?;\n]`)

// ExtractEducational splits text into sentence units and keeps the ones
// that mention an education keyword, joining up to eight of them. When no
// unit matches it keeps the first five long units instead, and when none
// of those exist it returns the first 200 runes of text unchanged.
//
// Units are joined with the ideographic full stop when text contains Han
// characters and with ". " otherwise.
func (c *Cleaner) ExtractEducational(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	units := splitUnits(text)
	sep, end := separatorFor(text)

	var keep []string
	for _, u := range units {
		if utf8.RuneCountInString(u) > minKeywordUnit && containsAny(strings.ToLower(u), c.cv.keywords) {
			keep = append(keep, u)
			if len(keep) == maxKeywordUnits {
				break
			}
		}
	}
	if len(keep) > 0 {
		return strings.Join(keep, sep) + end
	}

	for _, u := range units {
		if utf8.RuneCountInString(u) > minFallbackUnit {
			keep = append(keep, u)
			if len(keep) == maxFallbackUnits {
				break
			}
		}
	}
	if len(keep) > 0 {
		return strings.Join(keep, sep) + end
	}

	return types.TruncateRunes(text, fallbackPrefix)
}

func splitUnits(text string) []string {
	parts := sentenceBreak.Split(text, -1)
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			units = append(units, p)
		}
	}
	return units
}

func separatorFor(text string) (sep, end string) {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return "。", "。"
		}
	}
	return ". ", "."
}
