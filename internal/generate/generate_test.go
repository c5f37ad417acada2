// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-curator/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

type fakeChat struct {
	replies []string
	errs    []error
	calls   int
	last    openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	var content string
	if i < len(f.replies) {
		content = f.replies[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}, nil
}

func TestGenerate(t *testing.T) {
	fake := &fakeChat{replies: []string{"  # Report\n\nBody  "}}
	g := &OpenAI{Client: fake, Model: "glm-4", Temperature: 0.7, MaxTokens: 100}

	got, err := g.Generate(context.Background(), "write a report")
	require.NoError(t, err)
	assert.Equal(t, "# Report\n\nBody", got)

	assert.Equal(t, "glm-4", fake.last.Model)
	assert.Equal(t, float32(0.7), fake.last.Temperature)
	require.Len(t, fake.last.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.last.Messages[0].Role)
	assert.Equal(t, "write a report", fake.last.Messages[1].Content)
}

func TestGenerateRetries(t *testing.T) {
	fake := &fakeChat{
		errs:    []error{errors.New("502"), nil},
		replies: []string{"", "ok"},
	}
	g := &OpenAI{Client: fake, MaxRetries: 2}

	got, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, fake.calls)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	fake := &fakeChat{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	g := &OpenAI{Client: fake, MaxRetries: 2}

	_, err := g.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))
	assert.Contains(t, err.Error(), "c")
}

func TestGenerateEmptyCompletion(t *testing.T) {
	g := &OpenAI{Client: &fakeChat{replies: []string{"   "}}}

	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(types.AIConfig{Model: "glm-4"})
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))

	g, err := New(types.AIConfig{APIKey: "sk-test", Model: "glm-4", BaseURL: "http://localhost:9/v1"})
	require.NoError(t, err)
	assert.Equal(t, "glm-4", g.Model)
}
