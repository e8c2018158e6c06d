// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/enhancer"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/rerank"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func TestProcessQuery_ReturnsInsufficientContextWhenEmpty(t *testing.T) {
	store := vectorstore.NewLocalStore(384, t.TempDir())
	embedder := embeddings.NewMockEmbedder(384)
	llmClient := llm.NewMockClient()

	e := New(store, embedder, llmClient, nil, nil, Config{SimilarityThreshold: 0.99, RerankEnabled: false})
	resp, err := e.ProcessQuery(context.Background(), "what is the capital of France?", 5)
	require.NoError(t, err)
	require.Empty(t, resp.Sources)
	require.Equal(t, 0, resp.TotalSources)
	require.True(t, resp.RequiresClarification)
}

// fixedEmbedder maps known strings to hand-chosen vectors so that query
// variants deterministically retrieve disjoint halves of the corpus,
// independent of the mock embedder's hash-based placement.
type fixedEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fixedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, f.dim), nil
}

func (f *fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimension() int { return f.dim }

func TestProcessQuery_RerankTopKLargerThanTopKKeepsExtraSources(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewLocalStore(4, t.TempDir())

	// "What is Foo?" expands (via internal/enhancer) into three variants:
	// the original query, "information about Foo", and "foo". Each variant
	// is wired below to point at a different pair of one-hot documents, so
	// merging across variants yields all 4 documents even though each
	// individual variant search is capped at top_k=2.
	embedder := &fixedEmbedder{
		dim: 4,
		vectors: map[string][]float32{
			"doc0":                  {1, 0, 0, 0},
			"doc1":                  {0, 1, 0, 0},
			"doc2":                  {0, 0, 1, 0},
			"doc3":                  {0, 0, 0, 1},
			"What is Foo?":          {0.9, 0.8, 0, 0},
			"information about Foo": {0, 0, 0.9, 0.8},
			"foo":                   {1, 0, 0, 0},
		},
	}
	llmClient := llm.NewMockClient()

	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("doc%d", i)
		vec, err := embedder.EmbedText(ctx, name)
		require.NoError(t, err)
		_, err = store.AddVectors(ctx, [][]float32{vec}, []vectorstore.Metadata{
			{"text": name, "doc_id": name},
		})
		require.NoError(t, err)
	}

	// rerank_top_k (4) exceeds top_k (2): every reranked source should
	// survive the final clip, not just the first top_k of them.
	e := New(store, embedder, llmClient, enhancer.New(), rerank.New(), Config{SimilarityThreshold: -1, RerankEnabled: true, RerankTopK: 4})
	resp, err := e.ProcessQuery(ctx, "What is Foo?", 2)
	require.NoError(t, err)
	require.Len(t, resp.Sources, 4)
}

func TestProcessQuery_ReturnsGroundedSources(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewLocalStore(384, t.TempDir())
	embedder := embeddings.NewMockEmbedder(384)
	llmClient := llm.NewMockClient()

	vec, err := embedder.EmbedText(ctx, "Paris is the capital of France.")
	require.NoError(t, err)
	_, err = store.AddVectors(ctx, [][]float32{vec}, []vectorstore.Metadata{
		{"text": "Paris is the capital of France.", "doc_id": "geo_paris"},
	})
	require.NoError(t, err)

	e := New(store, embedder, llmClient, enhancer.New(), rerank.New(), Config{SimilarityThreshold: -1, RerankEnabled: true, RerankTopK: 5})
	resp, err := e.ProcessQuery(ctx, "Paris is the capital of France.", 5)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Sources)
	require.Equal(t, "geo_paris", resp.Sources[0].DocID)
	require.NotNil(t, resp.QueryEnhancement)
}
