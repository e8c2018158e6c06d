// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/northbound/hive-rag/internal/herr"
)

// AnthropicClient calls the Messages API via the official SDK, giving
// this service a second LLM provider alongside OpenAIClient.
type AnthropicClient struct {
	sdk   anthropic.Client
	model string
}

// NewAnthropicClient builds an AnthropicClient for the given model.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		sdk:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

// Generate sends prompt as a single user message and returns the
// response's concatenated text blocks.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := withDeadline(ctx)
	defer cancel()

	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", herr.Wrap(herr.KindLLM, herr.SeverityHigh, "anthropic request deadline exceeded", err).
				WithDetail("provider", "anthropic").WithDetail("model", c.model).WithDetail("deadline_exceeded", true)
		}
		return "", herr.Wrap(herr.KindLLM, herr.SeverityHigh, "anthropic message request failed", err).
			WithDetail("provider", "anthropic").WithDetail("model", c.model)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", herr.New(herr.KindLLM, herr.SeverityMedium, "anthropic returned no text content").
			WithDetail("provider", "anthropic").WithDetail("model", c.model)
	}
	return text, nil
}
