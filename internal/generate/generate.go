// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate wraps an OpenAI-compatible chat endpoint as a plain
// prompt-in, text-out generator.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/metrics"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatClient is the subset of *openai.Client the generator calls. Tests
// supply a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// backoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// systemPrompt frames every request.
const systemPrompt = "You are an experienced teacher and curriculum designer. Answer in the language of the request."

// OpenAI generates text through a chat-completion endpoint.
type OpenAI struct {
	Client      ChatClient
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// New builds an OpenAI generator from cfg. BaseURL may point at any
// OpenAI-compatible server.
func New(cfg types.AIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, types.ProviderError("openai", errors.New("api key not configured"))
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		Client:      openai.NewClientWithConfig(clientCfg),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
	}, nil
}

// Generate sends prompt as a single user message and returns the first
// choice's trimmed content. Failed calls are retried with exponential
// backoff; the final failure is a provider_unavailable *types.Error.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.Model,
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	log := logger.FromContext(ctx).With(zap.String("model", g.Model))
	var lastErr error
	for attempt := 0; attempt <= g.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := g.complete(ctx, req)
		metrics.ObserveProvider("openai", err)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warn("completion failed", zap.Int("attempt", attempt+1), zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", types.ProviderError("openai", fmt.Errorf("after %d retries: %w", g.MaxRetries, lastErr))
}

func (g *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	resp, err := g.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
