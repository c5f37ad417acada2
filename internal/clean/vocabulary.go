// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean turns raw search-provider content into usable teaching text.
// It normalizes markup-laden input, extracts education-related sentences,
// and decides whether the result is worth keeping. Every decision is driven
// by a Vocabulary so keyword lists can be swapped for tests or localization.
package clean

import (
	"fmt"
	"regexp"
	"strings"
)

// Vocabulary holds the word lists and signatures used by the cleaner and
// by the search gateway's technical-content filter. It is the single
// configuration source for both filters.
type Vocabulary struct {
	// EducationKeywords mark a sentence or text as education-related.
	// Matching is case-insensitive substring matching.
	EducationKeywords []string `yaml:"education_keywords" json:"education_keywords"`

	// CodeSignatures are regular expressions that mark text as technical
	// code (function definitions, DOM access, inline CSS).
	CodeSignatures []string `yaml:"code_signatures" json:"code_signatures"`

	// TechTerms reject a search hit whose lower-cased content contains any of them.
	TechTerms []string `yaml:"tech_terms" json:"tech_terms"`

	// TechTitleTerms reject a search hit whose lower-cased title contains any of them.
	TechTitleTerms []string `yaml:"tech_title_terms" json:"tech_title_terms"`

	// Boilerplate phrases are removed during normalization.
	Boilerplate []string `yaml:"boilerplate" json:"boilerplate"`
}

// DefaultVocabulary returns the built-in Chinese and English lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		EducationKeywords: []string{
			"教学", "教案", "课程", "学习", "教育", "知识", "方法", "技能", "培养",
			"学生", "老师", "教师", "课堂", "教材", "练习", "作业", "考试",
			"理解", "掌握", "应用", "分析", "综合", "评价", "创新",
			"诗", "文学", "古诗", "作品", "作者", "内容", "意义", "特点",
			"teach", "lesson", "curriculum", "learn", "student", "classroom",
			"pupil", "syllabus", "homework", "exercise", "assessment", "exam",
			"quiz", "worksheet", "knowledge", "skill", "understand", "literature",
			"poem", "poetry", "author",
		},
		CodeSignatures: []string{
			`function\s*\w*\s*\(`,
			`document\.`,
			`getElementById`,
			`background-color`,
			`font-size`,
		},
		TechTerms: []string{
			"javascript", "css", "html", "function", "var ", "const ",
			"import ", "export ", "class ", "div>", "<script", "github",
		},
		TechTitleTerms: []string{
			"github", "api", "javascript", "css", "html", "代码",
		},
		Boilerplate: []string{
			"百度文库", "loadingText", "report.baidu.com", "侵删",
			"相关视频", "点击查看", "更多内容",
		},
	}
}

// compiledVocabulary is a Vocabulary prepared for matching.
type compiledVocabulary struct {
	keywords    []string
	signatures  []*regexp.Regexp
	techTerms   []string
	titleTerms  []string
	boilerplate []*regexp.Regexp
}

func compile(v Vocabulary) (compiledVocabulary, error) {
	cv := compiledVocabulary{
		keywords:   lowerAll(v.EducationKeywords),
		techTerms:  lowerAll(v.TechTerms),
		titleTerms: lowerAll(v.TechTitleTerms),
	}
	for _, sig := range v.CodeSignatures {
		re, err := regexp.Compile(sig)
		if err != nil {
			return compiledVocabulary{}, fmt.Errorf("compiling code signature %q: %w", sig, err)
		}
		cv.signatures = append(cv.signatures, re)
	}
	for _, phrase := range v.Boilerplate {
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		cv.boilerplate = append(cv.boilerplate, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	return cv, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// containsAny reports whether lowered contains any of the lower-cased needles.
func containsAny(lowered string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lowered, n) {
			return true
		}
	}
	return false
}

// Cleaner bundles the normalizer, extractor, and quality classifier over
// one compiled Vocabulary. A Cleaner is safe for concurrent use.
type Cleaner struct {
	cv compiledVocabulary
}

// New compiles v into a Cleaner.
func New(v Vocabulary) (*Cleaner, error) {
	cv, err := compile(v)
	if err != nil {
		return nil, err
	}
	return &Cleaner{cv: cv}, nil
}

// MustNew is like New but panics on an invalid signature.
func MustNew(v Vocabulary) *Cleaner {
	c, err := New(v)
	if err != nil {
		panic(err)
	}
	return c
}

// IsTechnical reports whether a search hit looks like programming material:
// its content contains a TechTerm or its title contains a TechTitleTerm.
func (c *Cleaner) IsTechnical(title, content string) bool {
	return containsAny(strings.ToLower(content), c.cv.techTerms) ||
		containsAny(strings.ToLower(title), c.cv.titleTerms)
}

var defaultCleaner = MustNew(DefaultVocabulary())

// Default returns the Cleaner built from DefaultVocabulary.
func Default() *Cleaner { return defaultCleaner }

// Normalize cleans raw with the default vocabulary.
func Normalize(raw string) string { return defaultCleaner.Normalize(raw) }

// ExtractEducational extracts teaching sentences with the default vocabulary.
func ExtractEducational(text string) string { return defaultCleaner.ExtractEducational(text) }

// IsQuality applies the quality gate with the default vocabulary.
func IsQuality(text string) bool { return defaultCleaner.IsQuality(text) }
