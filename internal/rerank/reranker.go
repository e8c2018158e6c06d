// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package rerank implements component C9: a BM25 reranker built per call
// over the query engine's surviving candidates, grounded on the BM25
// index construction in Aman-CERP-amanmcp's internal/store/bm25.go —
// adapted from a persistent code-search index into an ephemeral,
// in-memory one scoped to a single query's candidate set.
package rerank

import (
	"context"
	"sort"

	"github.com/blevesearch/bleve/v2"

	"github.com/northbound/hive-rag/internal/herr"
)

// Candidate is one survivor handed to the reranker by the query engine.
// Every field round-trips: the reranker only adds RerankScore.
type Candidate struct {
	ID   string
	Text string
}

// Scored pairs a candidate with its BM25 rerank score. Scores are only
// meaningful relative to other scores from the same Rerank call.
type Scored struct {
	Candidate   Candidate
	RerankScore float64
}

// Reranker builds a fresh in-memory bleve index per call: candidate sets
// are query-scoped and small, so there's no benefit to a persistent index
// the way Aman-CERP-amanmcp's code-search BM25 index needs one.
type Reranker struct{}

// New constructs a Reranker. It holds no state between calls.
func New() *Reranker {
	return &Reranker{}
}

// Rerank scores every candidate against query via BM25 and returns the
// top_k by descending score, preserving every input field unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate, topK int) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, herr.Wrap(herr.KindRetrieval, herr.SeverityMedium, "failed to build rerank index", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	for _, c := range candidates {
		if err := batch.Index(c.ID, struct{ Text string }{Text: c.Text}); err != nil {
			return nil, herr.Wrap(herr.KindRetrieval, herr.SeverityMedium, "failed to index rerank candidate", err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, herr.Wrap(herr.KindRetrieval, herr.SeverityMedium, "failed to execute rerank batch", err)
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("Text")
	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = len(candidates)

	result, err := idx.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, herr.Wrap(herr.KindRetrieval, herr.SeverityMedium, "rerank search failed", err)
	}

	scoreByID := make(map[string]float64, len(result.Hits))
	for _, hit := range result.Hits {
		scoreByID[hit.ID] = hit.Score
	}

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Candidate: c, RerankScore: scoreByID[c.ID]}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
