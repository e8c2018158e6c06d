// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_AddSearchDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(3, dir)

	ids, err := s.AddVectors(ctx, [][]float32{{1, 0, 0}, {0, 1, 0}}, []Metadata{
		{"text": "alpha", "doc_id": "a"},
		{"text": "beta", "doc_id": "b"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Equal(t, ids[0], hits[0].ID)
	require.InDelta(t, 1.0, hits[0].Score, 1e-5)

	n, err := s.DeleteVectors(ctx, []int64{ids[0]})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	hits, err = s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	for _, h := range hits {
		require.NotEqual(t, ids[0], h.ID)
	}

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalVectors)
	require.Equal(t, 1, stats.ActiveVectors)
}

func TestLocalStore_DimensionMismatchFails(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(3, t.TempDir())

	_, err := s.AddVectors(ctx, [][]float32{{1, 0}}, []Metadata{{"text": "x"}})
	require.Error(t, err)

	stats, _ := s.GetStats(ctx)
	require.Equal(t, 0, stats.TotalVectors, "failed batch must not leave partial state")
}

func TestLocalStore_PersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(2, dir)

	ids, err := s.AddVectors(ctx, [][]float32{{1, 1}}, []Metadata{{"text": "x", "doc_id": "d"}})
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx))

	reloaded := NewLocalStore(2, dir)
	require.NoError(t, reloaded.Load(ctx))

	stats, err := reloaded.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalVectors)

	hits, err := reloaded.SearchWithMetadata(ctx, []float32{1, 1}, 1)
	require.NoError(t, err)
	require.Equal(t, ids[0], hits[0].ID)
	require.Equal(t, "x", hits[0].Text)
}

func TestLocalStore_LoadRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(2, dir)
	_, err := s.AddVectors(ctx, [][]float32{{1, 1}}, []Metadata{{"text": "x"}})
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx))

	mismatched := NewLocalStore(3, dir)
	err = mismatched.Load(ctx)
	require.Error(t, err)
}

func TestLocalStore_ClearIndex(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(2, t.TempDir())
	_, err := s.AddVectors(ctx, [][]float32{{1, 1}}, []Metadata{{"text": "x"}})
	require.NoError(t, err)

	require.NoError(t, s.ClearIndex(ctx))

	hits, err := s.Search(ctx, []float32{1, 1}, 5)
	require.NoError(t, err)
	require.Empty(t, hits)

	stats, _ := s.GetStats(ctx)
	require.Equal(t, 0, stats.ActiveVectors)
}

func TestLocalStore_UpdateMetadataCannotUndelete(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(2, t.TempDir())
	ids, err := s.AddVectors(ctx, [][]float32{{1, 1}}, []Metadata{{"text": "x"}})
	require.NoError(t, err)

	_, err = s.DeleteVectors(ctx, ids)
	require.NoError(t, err)

	require.NoError(t, s.UpdateMetadata(ctx, ids[0], Metadata{"deleted": false}))

	hits, err := s.Search(ctx, []float32{1, 1}, 5)
	require.NoError(t, err)
	require.Empty(t, hits, "deleted vector must stay deleted despite patch")
}
