// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkText_SizeBasedRespectsBudgetAndOverlap(t *testing.T) {
	c := New(Config{Method: MethodSize, ChunkSize: 40, ChunkOverlap: 10}, nil)

	text := "Alpha sentence one. Beta sentence two. Gamma sentence three. Delta sentence four."
	chunks, err := c.ChunkText(context.Background(), text, map[string]any{"doc_id": "d1"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		require.Equal(t, i, ch.ChunkIndex)
		require.Equal(t, "size", ch.ChunkingMethod)
		require.Equal(t, "d1", ch.Metadata["doc_id"])
		require.LessOrEqual(t, len(ch.Text), 40+10, "overlap carry should not blow past a sentence's own length")
	}
}

func TestChunkText_NeverSplitsASentence(t *testing.T) {
	c := New(Config{Method: MethodSize, ChunkSize: 5, ChunkOverlap: 1}, nil)
	text := "This sentence is much longer than the chunk size."
	chunks, err := c.ChunkText(context.Background(), text, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1, "a single sentence longer than chunk size still becomes one whole chunk")
	require.Equal(t, text, chunks[0].Text)
}

func TestChunkText_SemanticFallsBackWithoutEmbedder(t *testing.T) {
	c := New(Config{Method: MethodSemantic, ChunkSize: 1000, ChunkOverlap: 0, SimilarityThreshold: 0.5}, nil)
	chunks, err := c.ChunkText(context.Background(), "One. Two. Three.", nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		require.Equal(t, "fallback", ch.ChunkingMethod)
	}
}

func TestChunkText_ReconstructsInputModuloWhitespace(t *testing.T) {
	c := New(Config{Method: MethodSize, ChunkSize: 1000, ChunkOverlap: 0}, nil)
	text := "First sentence here. Second sentence here. Third one too."
	chunks, err := c.ChunkText(context.Background(), text, nil)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			rebuilt.WriteString(" ")
		}
		rebuilt.WriteString(ch.Text)
	}
	require.Equal(t, normalizeWhitespace(text), normalizeWhitespace(rebuilt.String()))
}

func TestChunkText_EmptyInputProducesNoChunks(t *testing.T) {
	c := New(Config{Method: MethodSize, ChunkSize: 100, ChunkOverlap: 10}, nil)
	chunks, err := c.ChunkText(context.Background(), "   ", nil)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
