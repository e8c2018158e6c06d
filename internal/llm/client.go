// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package llm provides a provider-polymorphic chat completion client:
// a pluggable Client interface backed by real provider SDKs, in place
// of a single hand-rolled OpenAI question-asker.
package llm

import (
	"context"
	"time"

	"github.com/northbound/hive-rag/internal/herr"
)

// Client generates text completions from a prompt. The OpenAI and
// Anthropic clients enforce the default 30s per-call deadline unless the
// caller's context already carries a tighter one; MockClient applies none.
type Client interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// DefaultDeadline is the per-call deadline enforced when the caller's
// context has no earlier deadline of its own.
const DefaultDeadline = 30 * time.Second

// Config carries the provider selection and credentials resolved from
// internal/config.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New constructs a Client for the configured provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, herr.New(herr.KindConfiguration, herr.SeverityCritical, "openai llm provider requires an api key")
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(cfg.APIKey, model, cfg.BaseURL), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, herr.New(herr.KindConfiguration, herr.SeverityCritical, "anthropic llm provider requires an api key")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		return NewAnthropicClient(cfg.APIKey, model), nil
	case "mock", "":
		return NewMockClient(), nil
	default:
		return nil, herr.New(herr.KindConfiguration, herr.SeverityCritical, "unknown llm provider").
			WithDetail("provider", cfg.Provider)
	}
}

// withDeadline applies DefaultDeadline unless ctx already has a sooner
// deadline set by the caller (e.g. an HTTP request's own timeout).
func withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < DefaultDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultDeadline)
}
