// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package exercise generates practice questions for a knowledge point
// through a text generator and stores them.
package exercise

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/generate"
	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/structured"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// defaultOptions fill a multiple-choice question that arrives without options.
var defaultOptions = []string{"A", "B", "C", "D"}

// promptTmpl asks for one question of each kind as a JSON object.
var promptTmpl = template.Must(template.New("exercises").Parse(`你是一位经验丰富的教师，擅长根据知识点生成高质量的练习题。

请根据以下知识点，生成3道不同类型的练习题（选择题、填空题、简答题各1道）。

知识点：{{.KnowledgePoint}}

要求：
1. 题目要贴合知识点，难度适中
2. 选择题应该有4个选项，只有1个正确答案
3. 填空题应该明确标注空白位置
4. 简答题应该能够考察学生对知识点的理解和应用

请按照以下JSON格式返回：
{"exercises": [
  {"type": "选择题", "question": "题目内容", "options": ["选项A", "选项B", "选项C", "选项D"], "answer": "正确答案（例如：A）", "explanation": "解析说明"},
  {"type": "填空题", "question": "题目内容，用___表示空白", "answer": "正确答案", "explanation": "解析说明"},
  {"type": "简答题", "question": "题目内容", "answer": "参考答案", "explanation": "评分要点说明"}
]}

只返回JSON，不要返回其他文字说明。
`))

// kindNames maps the labels a model may use to an ExerciseKind.
var kindNames = map[string]types.ExerciseKind{
	"选择题":               types.ExerciseChoice,
	"单选题":               types.ExerciseChoice,
	"multiple-choice":   types.ExerciseChoice,
	"multiple choice":   types.ExerciseChoice,
	"choice":            types.ExerciseChoice,
	"填空题":               types.ExerciseFillBlank,
	"fill-in-blank":     types.ExerciseFillBlank,
	"fill-in-the-blank": types.ExerciseFillBlank,
	"fill in the blank": types.ExerciseFillBlank,
	"简答题":               types.ExerciseShortAnswer,
	"short-answer":      types.ExerciseShortAnswer,
	"short answer":      types.ExerciseShortAnswer,
}

// ParseKind maps a model-supplied type label to an ExerciseKind.
func ParseKind(label string) (types.ExerciseKind, bool) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(label))]
	return k, ok
}

// Saver persists a batch of exercises atomically. *store.Store satisfies it.
type Saver interface {
	SaveExercises(ctx context.Context, exercises []types.Exercise) ([]types.Exercise, error)
}

// Service generates and stores exercises.
type Service struct {
	gen   generate.Generator
	saver Saver
}

// New returns a Service. A nil saver skips persistence.
func New(gen generate.Generator, saver Saver) *Service {
	return &Service{gen: gen, saver: saver}
}

// payload is the JSON shape the prompt asks for.
type payload struct {
	Exercises []item `json:"exercises"`
}

type item struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

func validate(p payload) error {
	if len(p.Exercises) == 0 {
		return errors.New("no exercises in response")
	}
	for i, it := range p.Exercises {
		if err := structured.Required("type", it.Type, "question", it.Question, "answer", it.Answer); err != nil {
			return fmt.Errorf("exercise %d: %w", i+1, err)
		}
		if _, ok := ParseKind(it.Type); !ok {
			return fmt.Errorf("exercise %d: unknown type %q", i+1, it.Type)
		}
	}
	return nil
}

// Generate asks the generator for exercises on knowledgePoint, validates
// them, and saves them in one batch. Generator failures are
// provider_unavailable, unusable output is parse_error, and a failed save
// is persistence_hard_failure with nothing stored.
func (s *Service) Generate(ctx context.Context, knowledgePoint string) (types.ExerciseSet, error) {
	knowledgePoint = strings.TrimSpace(knowledgePoint)
	if knowledgePoint == "" {
		return types.ExerciseSet{}, types.NewError(types.ReasonValidation, "knowledge_point is empty", nil)
	}
	if s.gen == nil {
		return types.ExerciseSet{}, types.ProviderError("generator", errors.New("text generation is not configured"))
	}
	log := logger.FromContext(ctx).With(zap.String("knowledge_point", knowledgePoint))

	var prompt bytes.Buffer
	if err := promptTmpl.Execute(&prompt, struct{ KnowledgePoint string }{knowledgePoint}); err != nil {
		return types.ExerciseSet{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := s.gen.Generate(ctx, prompt.String())
	if err != nil {
		return types.ExerciseSet{}, fmt.Errorf("generating exercises: %w", err)
	}

	p, err := structured.Parse(raw, validate)
	if err != nil {
		log.Warn("unusable generator output", zap.Error(err), zap.Int("raw_bytes", len(raw)))
		return types.ExerciseSet{}, types.NewError(types.ReasonParse, "parsing generated exercises", err)
	}

	exercises := make([]types.Exercise, len(p.Exercises))
	for i, it := range p.Exercises {
		kind, _ := ParseKind(it.Type)
		ex := types.Exercise{
			KnowledgePoint: knowledgePoint,
			Kind:           kind,
			Question:       strings.TrimSpace(it.Question),
			Answer:         strings.TrimSpace(it.Answer),
			Explanation:    strings.TrimSpace(it.Explanation),
		}
		if kind == types.ExerciseChoice {
			ex.Options = it.Options
			if len(ex.Options) == 0 {
				ex.Options = append([]string(nil), defaultOptions...)
			}
		}
		exercises[i] = ex
	}

	if s.saver != nil {
		saved, err := s.saver.SaveExercises(ctx, exercises)
		if err != nil {
			return types.ExerciseSet{}, types.NewError(types.ReasonHardFailure, "saving exercises", err)
		}
		exercises = saved
	}

	log.Info("exercises generated", zap.Int("count", len(exercises)))
	return types.ExerciseSet{
		KnowledgePoint: knowledgePoint,
		Exercises:      exercises,
		TotalCount:     len(exercises),
	}, nil
}
