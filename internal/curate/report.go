// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package curate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// reportTemplate renders a report document and names the stored record.
type reportTemplate struct {
	doc   *template.Template
	title string // fmt pattern taking the query
}

// reportData is the input to the report template.
type reportData struct {
	Query      string
	Sources    []types.CuratedFragment
	References []types.CuratedFragment
}

var defaultReport = reportTemplate{
	title: "%s - 教学资源整理报告",
	doc: template.Must(template.New("report").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(`# {{.Query}} - 教学资源整理

## 相关教学资源

{{range $i, $f := .Sources}}### 资源{{inc $i}}: {{$f.Title}}

**内容摘要**: {{$f.EducationalContent}}

**资源链接**: {{$f.URL}}

---

{{end}}
## 教学建议

基于以上搜索到的资源，建议教师：

1. **多角度教学**: 结合不同资源的观点和方法，丰富教学内容
2. **实践应用**: 将理论知识与实际案例相结合
3. **互动教学**: 鼓励学生参与讨论和思考
4. **资源整合**: 充分利用各类教学资源，提升教学效果

## 参考资源

{{range .References}}- {{.Title}}: {{.URL}}
{{end}}`)),
}

// polishPromptTmpl asks the generator to rewrite a template report.
var polishPromptTmpl = template.Must(template.New("polish").Parse(`Rewrite the following teaching-resource report on "{{.Query}}" into a polished lesson-planning document for teachers.

Keep the language of the draft. Keep the section structure: an overview, a summary of each resource, teaching suggestions, and the reference list. Keep every reference link exactly as written. Do not invent sources. Respond with Markdown only.

Draft:
{{.Draft}}
`))

// buildReport renders the report record for the top fragments. It reports
// whether the generator's rewrite was used.
func (r *run) buildReport(ctx context.Context, fragments []types.CuratedFragment) (types.ResourceRecord, bool, error) {
	top := fragments[:min(r.o.cfg.ReportSources, len(fragments))]
	refs := fragments[:min(r.o.cfg.ReportReferences, len(fragments))]

	var buf bytes.Buffer
	if err := r.o.report.doc.Execute(&buf, reportData{Query: r.query, Sources: top, References: refs}); err != nil {
		return types.ResourceRecord{}, false, err
	}
	content := buf.String()

	polished := false
	if r.o.generator != nil {
		if text, ok := r.polish(ctx, content); ok {
			content = text
			polished = true
		}
	}

	urls := make([]string, len(top))
	for i, f := range top {
		urls[i] = f.URL
	}
	return types.ResourceRecord{
		Title:     fmt.Sprintf(r.o.report.title, r.query),
		Type:      types.ResourceLessonPlan,
		Content:   content,
		SourceURL: strings.Join(urls, ", "),
		Tags:      r.query,
	}, polished, nil
}

// polish asks the generator for a rewrite. It returns false on any failure.
func (r *run) polish(ctx context.Context, draft string) (string, bool) {
	var prompt bytes.Buffer
	if err := polishPromptTmpl.Execute(&prompt, struct{ Query, Draft string }{r.query, draft}); err != nil {
		r.log.Warn("rendering polish prompt", zap.Error(err))
		return "", false
	}
	text, err := r.o.generator.Generate(ctx, prompt.String())
	if err != nil {
		r.log.Warn("report generator unavailable, using template", zap.Error(err))
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.log.Warn("report generator returned nothing, using template")
		return "", false
	}
	return text, true
}
