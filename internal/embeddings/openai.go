// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embeddings

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/northbound/hive-rag/internal/herr"
)

// OpenAIEmbedder uses OpenAI's embeddings endpoint via the official SDK.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder creates a new OpenAI embedder. baseURL overrides the
// default API host, used for OpenAI-compatible gateways.
func NewOpenAIEmbedder(apiKey, model, baseURL string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	dim := 1536
	switch model {
	case "text-embedding-3-large":
		dim = 3072
	case "text-embedding-ada-002":
		dim = 1536
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		dim:    dim,
	}
}

// Dimension returns the embedding dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// EmbedText generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates embeddings for multiple texts in one request.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "openai embeddings request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, herr.New(herr.KindEmbedding, herr.SeverityHigh, "openai returned unexpected embedding count").
			WithDetail("expected", len(texts)).WithDetail("got", len(resp.Data))
	}

	result := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	return result, nil
}
