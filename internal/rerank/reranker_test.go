// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRerank_OrdersByRelevance(t *testing.T) {
	r := New()
	candidates := []Candidate{
		{ID: "1", Text: "Paris is the capital of France."},
		{ID: "2", Text: "Bananas are a good source of potassium."},
		{ID: "3", Text: "The capital city of France hosts many museums."},
	}

	scored, err := r.Rerank(context.Background(), "capital of France", candidates, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	require.Contains(t, []string{"1", "3"}, scored[0].Candidate.ID)
	require.NotEqual(t, "2", scored[0].Candidate.ID)
}

func TestRerank_EmptyCandidatesReturnsNil(t *testing.T) {
	r := New()
	scored, err := r.Rerank(context.Background(), "anything", nil, 5)
	require.NoError(t, err)
	require.Nil(t, scored)
}
