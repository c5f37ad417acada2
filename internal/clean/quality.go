// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"strings"
	"unicode/utf8"
)

const minQualityRunes = 30

// IsQuality reports whether text is usable teaching material: at least 30
// runes long, free of code signatures, and mentioning an education keyword.
// It is total and deterministic for a given Vocabulary.
func (c *Cleaner) IsQuality(text string) bool {
	if utf8.RuneCountInString(text) < minQualityRunes {
		return false
	}
	for _, re := range c.cv.signatures {
		if re.MatchString(text) {
			return false
		}
	}
	return containsAny(strings.ToLower(text), c.cv.keywords)
}
