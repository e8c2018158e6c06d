// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package llm

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"

	"github.com/northbound/hive-rag/internal/herr"
)

// OpenAIClient calls OpenAI's chat completions endpoint via the
// official SDK.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds an OpenAIClient. baseURL overrides the default
// API host, used for OpenAI-compatible gateways.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...), model: model}
}

// Generate sends prompt as a single user message and returns the model's
// text response.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		MaxTokens:   param.NewOpt(int64(maxTokens)),
		Temperature: param.NewOpt(float64(temperature)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", herr.Wrap(herr.KindLLM, herr.SeverityHigh, "openai request deadline exceeded", err).
				WithDetail("provider", "openai").WithDetail("model", c.model).WithDetail("deadline_exceeded", true)
		}
		return "", herr.Wrap(herr.KindLLM, herr.SeverityHigh, "openai chat completion failed", err).
			WithDetail("provider", "openai").WithDetail("model", c.model)
	}
	if len(resp.Choices) == 0 {
		return "", herr.New(herr.KindLLM, herr.SeverityMedium, "openai returned no choices").
			WithDetail("provider", "openai").WithDetail("model", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
