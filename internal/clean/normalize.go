// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

const (
	// minNormalizedRunes is the shortest normalized text that is returned.
	minNormalizedRunes = 20

	// minContentLetters is the fewest Latin or CJK letters a usable text carries.
	minContentLetters = 10
)

// markupPattern detects input that should go through the HTML parser.
var markupPattern = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

// noiseElements are removed before the document's text is read.
const noiseElements = "script, style, noscript, iframe, svg, canvas, template, head, nav, footer, form, button"

// blockElements get a trailing newline so adjacent blocks do not fuse.
const blockElements = "p, div, li, br, tr, h1, h2, h3, h4, h5, h6, section, article, blockquote, pre, td, th, dd, dt"

// stripPasses run in order on every normalization round. Each pass only
// deletes text, so repeated rounds shrink the input until it stops changing.
var stripPasses = []*regexp.Regexp{
	// Leftover tags, including ones that were entity-escaped in the source.
	regexp.MustCompile(`<[^>]+>`),

	// URLs, before punctuation passes split them.
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`www\.\S+`),

	// CSS blocks, declarations, and at-rules.
	regexp.MustCompile(`\{[^}]*\}`),
	regexp.MustCompile(`\b[a-z][a-z-]*\s*:\s*[^;\n]+;`),
	regexp.MustCompile(`@(?:media|import|font-face|keyframes|charset|supports|page)[^;{\n]*[;{]?`),

	// Script statements.
	regexp.MustCompile(`function\s*\w*\s*\([^)]*\)\s*\{?`),
	regexp.MustCompile(`\b(?:var|const|let)\s+\w+\s*=\s*[^;\n]*;?`),
	regexp.MustCompile(`\b(?:if|for|while)\s*\([^)]*\)\s*\{?`),
	regexp.MustCompile(`\b(?:document|window|location)\.[\w.]*`),
	regexp.MustCompile(`getElementById\s*\([^)]*\)`),

	// Inline style properties that survived without a trailing semicolon.
	regexp.MustCompile(`\b(?:background|color|font|margin|padding|border|width|height|display|position|top|left|right|bottom)(?:-[a-z]+)*\s*:\s*[^;\n]+`),
	regexp.MustCompile(`\b(?:flex|grid|justify-content|align-items|align-content)(?:-[a-z]+)*\s*:\s*[^;\n]*;?`),
	regexp.MustCompile(`font-size\s*:?\s*\d+px`),
	regexp.MustCompile(`background-color\s*:?\s*#[0-9a-fA-F]{3,6}`),

	// Punctuation left over from code and selectors.
	regexp.MustCompile(`[{}();]`),
	regexp.MustCompile(`[\[\]]`),
	regexp.MustCompile(`[#.][a-zA-Z0-9_-]+`),
}

var (
	lineBreaks = regexp.MustCompile(`\s*\n\s*`)
	spaceRuns  = regexp.MustCompile(`[\t\f\r\v \x{00a0}\x{3000}]+`)
)

// Normalize strips markup, style, script, URLs, and boilerplate from raw,
// collapses whitespace runs to one space (or one newline when the run
// spans lines), and trims. It returns "" when the result is too
// short or carries too few letters to be usable text. Normalize never
// fails and is idempotent.
func (c *Cleaner) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := raw
	if markupPattern.MatchString(text) {
		text = htmlText(text)
	}
	text = norm.NFC.String(text)

	for {
		next := c.stripRound(text)
		if next == text {
			break
		}
		text = next
	}

	if utf8.RuneCountInString(text) < minNormalizedRunes || contentLetters(text) < minContentLetters {
		return ""
	}
	return text
}

func (c *Cleaner) stripRound(text string) string {
	for _, re := range stripPasses {
		text = re.ReplaceAllString(text, " ")
	}
	for _, re := range c.cv.boilerplate {
		text = re.ReplaceAllString(text, " ")
	}
	text = lineBreaks.ReplaceAllString(text, "\n")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// htmlText parses raw as HTML, drops non-content elements, and returns the
// remaining text with block boundaries kept as newlines. Parse failures
// fall back to the raw input; the regex passes still remove the tags.
func htmlText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find(noiseElements).Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return doc.Text()
}

// contentLetters counts Latin letters and CJK ideographs.
func contentLetters(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.Is(unicode.Han, r) {
			n++
		}
	}
	return n
}
