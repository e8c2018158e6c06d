// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/processor"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	store := vectorstore.NewLocalStore(384, dir)
	meta, err := metadatastore.New(dir)
	require.NoError(t, err)
	embedder := embeddings.NewMockEmbedder(384)
	ch := chunker.New(chunker.Config{Method: chunker.MethodSize, ChunkSize: 500, ChunkOverlap: 50}, embedder)
	return New(store, meta, processor.NewRegistry(), ch, embedder)
}

func TestIngestText_CreatesChunksAndRecord(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.IngestText(context.Background(), "Paris is the capital of France.", map[string]any{"doc_path": "/geo/paris"})
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	require.GreaterOrEqual(t, res.ChunksCreated, 1)
	require.False(t, res.IsUpdate)
}

func TestIngestText_ReplaceOnUpdate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.IngestText(ctx, "Paris is the capital of France.", map[string]any{"doc_path": "/geo/paris"})
	require.NoError(t, err)
	require.False(t, first.IsUpdate)

	second, err := e.IngestText(ctx, "Paris is a city in France.", map[string]any{"doc_path": "/geo/paris"})
	require.NoError(t, err)
	require.True(t, second.IsUpdate)
	require.GreaterOrEqual(t, second.OldVectorsDeleted, 1)

	hits, err := e.store.SearchWithMetadata(ctx, mustEmbed(t, e, "capital of France"), 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.NotContains(t, h.Text, "capital")
	}
}

func TestIngestText_EmptyTextIsSkipped(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.IngestText(context.Background(), "   ", nil)
	require.NoError(t, err)
	require.Equal(t, "skipped", res.Status)
	require.Equal(t, "no_content", res.Reason)
}

func TestDeleteFile_NonExistentReturnsZero(t *testing.T) {
	e := newTestEngine(t)
	n, err := e.DeleteFile(context.Background(), "/does/not/exist")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func mustEmbed(t *testing.T, e *Engine, text string) []float32 {
	t.Helper()
	vec, err := e.embedder.EmbedText(context.Background(), text)
	require.NoError(t, err)
	return vec
}
