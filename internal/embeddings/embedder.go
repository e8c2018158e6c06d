// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package embeddings turns text into fixed-dimension vectors. Providers
// are selected by name, mirroring the dynamic-dispatch-over-tagged-variant
// design the core uses for every pluggable collaborator.
package embeddings

import (
	"context"

	"github.com/northbound/hive-rag/internal/herr"
)

// Embedder generates vector embeddings from text, batched.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Config carries the provider selection and credentials resolved from
// internal/config.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New constructs an Embedder for the given configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, herr.New(herr.KindConfiguration, herr.SeverityCritical, "openai embedding provider requires an api key")
		}
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return NewOpenAIEmbedder(cfg.APIKey, model, cfg.BaseURL), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(baseURL, model), nil
	case "mock", "":
		return NewMockEmbedder(384), nil
	default:
		return nil, herr.New(herr.KindConfiguration, herr.SeverityCritical, "unknown embedding provider").
			WithDetail("provider", cfg.Provider)
	}
}
