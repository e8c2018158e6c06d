// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/northbound/hive-rag/internal/herr"
)

// OllamaEmbedder talks to a local Ollama instance. No available Go SDK
// covers Ollama's embeddings API, so this stays on stdlib net/http.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	dim     int
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	dim := 768 // nomic-embed-text default
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		dim:     dim,
	}
}

// Dimension returns the embedding dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dim
}

// EmbedText generates an embedding for a single text.
func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	type requestPayload struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}

	jsonData, err := json.Marshal(requestPayload{Model: e.model, Prompt: text})
	if err != nil {
		return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "failed to marshal ollama request", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "failed to build ollama request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "ollama request failed", err).
			WithDetail("unavailable", true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, herr.New(herr.KindEmbedding, herr.SeverityHigh, "ollama API error").
			WithDetail("status", resp.StatusCode).WithDetail("body", string(body))
	}

	var response struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "failed to decode ollama response", err)
	}

	result := make([]float32, len(response.Embedding))
	for i, v := range response.Embedding {
		result[i] = float32(v)
	}
	return result, nil
}

// EmbedTexts generates embeddings sequentially; Ollama's API has no batch
// endpoint for embeddings.
func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, fmt.Sprintf("failed to embed text %d", i), err)
		}
		result[i] = emb
	}
	return result, nil
}
