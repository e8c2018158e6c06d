// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package graphstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddEdge_AndEdgesFor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddEdge(ctx, Edge{SourceDocID: "a", TargetDocID: "b", RelationshipType: "references"}))

	edges, err := s.EdgesFor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "b", edges[0].TargetDocID)
}

func TestRelatedDocIDs_ExcludesSelfAndDedupes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddEdge(ctx, Edge{SourceDocID: "a", TargetDocID: "b", RelationshipType: "references"}))
	require.NoError(t, s.AddEdge(ctx, Edge{SourceDocID: "c", TargetDocID: "a", RelationshipType: "references"}))

	related, err := s.RelatedDocIDs(ctx, "a", 0)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, related)
}

func TestRelatedDocIDs_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddEdge(ctx, Edge{SourceDocID: "a", TargetDocID: "b", RelationshipType: "references"}))
	require.NoError(t, s.AddEdge(ctx, Edge{SourceDocID: "a", TargetDocID: "c", RelationshipType: "references"}))

	related, err := s.RelatedDocIDs(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
}
