// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package exercise

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-curator/internal/structured"
	"github.com/pdiddy/resource-curator/pkg/types"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type fakeSaver struct {
	err   error
	saved []types.Exercise
}

func (f *fakeSaver) SaveExercises(_ context.Context, exercises []types.Exercise) ([]types.Exercise, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Exercise, len(exercises))
	for i, ex := range exercises {
		ex.ID = int64(len(f.saved) + 1)
		f.saved = append(f.saved, ex)
		out[i] = ex
	}
	return out, nil
}

const threeExercises = "Here you go:\n```json\n" + `{"exercises": [
  {"type": "选择题", "question": "《静夜思》的作者是谁？", "options": ["A. 李白", "B. 杜甫", "C. 王维", "D. 白居易"], "answer": "A", "explanation": "李白所作。"},
  {"type": "填空题", "question": "床前明月光，疑是___。", "answer": "地上霜", "explanation": "第二句。"},
  {"type": "简答题", "question": "诗人表达了怎样的情感？", "answer": "思乡之情。", "explanation": "围绕思乡作答。"}
]}` + "\n```\n"

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{text: threeExercises}
	saver := &fakeSaver{}
	svc := New(gen, saver)

	set, err := svc.Generate(context.Background(), "  李白《静夜思》 ")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "知识点：李白《静夜思》")
	assert.Equal(t, "李白《静夜思》", set.KnowledgePoint)
	assert.Equal(t, 3, set.TotalCount)
	require.Len(t, set.Exercises, 3)

	assert.Equal(t, types.ExerciseChoice, set.Exercises[0].Kind)
	assert.Len(t, set.Exercises[0].Options, 4)
	assert.Equal(t, types.ExerciseFillBlank, set.Exercises[1].Kind)
	assert.Nil(t, set.Exercises[1].Options)
	assert.Equal(t, types.ExerciseShortAnswer, set.Exercises[2].Kind)

	for i, ex := range set.Exercises {
		assert.Equal(t, int64(i+1), ex.ID)
		assert.Equal(t, "李白《静夜思》", ex.KnowledgePoint)
	}
	assert.Len(t, saver.saved, 3)
}

func TestGenerateDefaultsChoiceOptions(t *testing.T) {
	gen := &fakeGenerator{text: `{"exercises": [{"type": "multiple-choice", "question": "Which is a mammal?", "answer": "B"}]}`}
	svc := New(gen, nil)

	set, err := svc.Generate(context.Background(), "animals")
	require.NoError(t, err)
	require.Len(t, set.Exercises, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, set.Exercises[0].Options)
	assert.Zero(t, set.Exercises[0].ID)
}

func TestGenerateParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		stage string
	}{
		{"not json", "Sorry, I cannot help with that.", "decode"},
		{"empty", "   ", "locate"},
		{"no exercises", `{"exercises": []}`, "validate"},
		{"missing answer", `{"exercises": [{"type": "简答题", "question": "Why?"}]}`, "validate"},
		{"unknown type", `{"exercises": [{"type": "essay", "question": "Why?", "answer": "Because."}]}`, "validate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{}
			svc := New(&fakeGenerator{text: tt.text}, saver)

			_, err := svc.Generate(context.Background(), "fractions")
			require.Error(t, err)
			assert.Equal(t, types.ReasonParse, types.ReasonOf(err))

			var pe *structured.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.stage, pe.Stage)
			assert.Equal(t, tt.text, pe.Raw)
			assert.Empty(t, saver.saved)
		})
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	svc := New(&fakeGenerator{err: types.ProviderError("openai", errors.New("timeout"))}, &fakeSaver{})

	_, err := svc.Generate(context.Background(), "fractions")
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))

	_, err = New(nil, nil).Generate(context.Background(), "fractions")
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))
}

func TestGenerateSaveFailure(t *testing.T) {
	svc := New(&fakeGenerator{text: threeExercises}, &fakeSaver{err: errors.New("disk full")})

	_, err := svc.Generate(context.Background(), "fractions")
	assert.Equal(t, types.ReasonHardFailure, types.ReasonOf(err))
}

func TestGenerateEmptyKnowledgePoint(t *testing.T) {
	_, err := New(&fakeGenerator{}, nil).Generate(context.Background(), " ")
	assert.Equal(t, types.ReasonValidation, types.ReasonOf(err))
}

func TestParseKind(t *testing.T) {
	tests := map[string]types.ExerciseKind{
		"选择题":             types.ExerciseChoice,
		" Multiple Choice ": types.ExerciseChoice,
		"填空题":             types.ExerciseFillBlank,
		"fill-in-the-blank": types.ExerciseFillBlank,
		"简答题":             types.ExerciseShortAnswer,
	}
	for in, want := range tests {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("essay")
	assert.False(t, ok)
}
