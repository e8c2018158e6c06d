// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package query implements component C11: the query engine that
// orchestrates enhancement, multi-variant retrieval, reranking, and
// grounded generation into a single process_query operation.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/enhancer"
	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/rerank"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

// Source is one grounding chunk surfaced with the answer.
type Source struct {
	TextPreview     string         `json:"text_preview"`
	SimilarityScore float32        `json:"similarity_score"`
	RerankScore     *float64       `json:"rerank_score,omitempty"`
	DocID           string         `json:"doc_id"`
	Metadata        map[string]any `json:"metadata"`
}

// Enhancement summarizes what the enhancer contributed to a query.
type Enhancement struct {
	Intent   enhancer.Intent `json:"intent"`
	Keywords []string        `json:"keywords"`
	Variants int             `json:"variants_searched"`
}

// Response is the shape returned by process_query.
type Response struct {
	Query            string       `json:"query"`
	Response         string       `json:"response"`
	Sources          []Source     `json:"sources"`
	TotalSources     int          `json:"total_sources"`
	QueryEnhancement *Enhancement `json:"query_enhancement,omitempty"`
	// RequiresClarification signals that nothing survived the similarity
	// threshold for this query: the caller (internal/conversation) should
	// ask a clarifying question instead of presenting this response as a
	// grounded answer.
	RequiresClarification bool      `json:"requires_clarification"`
	Timestamp              time.Time `json:"timestamp"`
}

// candidate tracks one retrieved hit while it's merged across variants.
type candidate struct {
	hit             vectorstore.HitWithMetadata
	queryConfidence float64
	weightedScore   float64
}

// Engine is component C11. Enhancer and Reranker are optional: a nil
// value for either makes the corresponding stage fail soft instead of
// failing the query.
type Engine struct {
	store      vectorstore.Store
	embedder   embeddings.Embedder
	llmClient  llm.Client
	enhancer   *enhancer.Enhancer
	reranker   *rerank.Reranker

	similarityThreshold float64
	rerankEnabled       bool
	rerankTopK          int
}

// Config carries the retrieval tunables from internal/config's
// RetrievalConfig.
type Config struct {
	SimilarityThreshold float64
	RerankEnabled       bool
	RerankTopK          int
}

// New constructs the query engine. enh and rr may be nil to disable
// enhancement and reranking respectively.
func New(store vectorstore.Store, embedder embeddings.Embedder, llmClient llm.Client, enh *enhancer.Enhancer, rr *rerank.Reranker, cfg Config) *Engine {
	return &Engine{
		store:               store,
		embedder:            embedder,
		llmClient:           llmClient,
		enhancer:            enh,
		reranker:            rr,
		similarityThreshold: cfg.SimilarityThreshold,
		rerankEnabled:       cfg.RerankEnabled,
		rerankTopK:          cfg.RerankTopK,
	}
}

// ProcessQuery runs the full retrieval-augmented-generation pipeline.
func (e *Engine) ProcessQuery(ctx context.Context, queryText string, topK int) (Response, error) {
	if topK <= 0 {
		topK = 5
	}

	variants := []enhancer.Variant{{Text: queryText, Confidence: 1.0}}
	var enhancement *Enhancement
	if e.enhancer != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Enhancer must fail soft; fall back to the original query.
				}
			}()
			enh := e.enhancer.Enhance(queryText)
			vs := enhancer.Variants(enh)
			if len(vs) > 0 {
				variants = vs
			}
			enhancement = &Enhancement{Intent: enh.Intent, Keywords: enh.Keywords, Variants: len(variants)}
		}()
	}
	if len(variants) > 3 {
		variants = variants[:3]
	}

	merged := map[int64]*candidate{}
	for _, v := range variants {
		vec, err := e.embedder.EmbedText(ctx, v.Text)
		if err != nil {
			return Response{}, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "failed to embed query variant", err)
		}

		hits, err := e.store.SearchWithMetadata(ctx, vec, topK)
		if err != nil {
			return Response{}, herr.Wrap(herr.KindRetrieval, herr.SeverityHigh, "search failed", err)
		}

		for _, h := range hits {
			weighted := float64(h.Score) * v.Confidence
			existing, ok := merged[h.ID]
			if !ok || weighted > existing.weightedScore {
				merged[h.ID] = &candidate{hit: h, queryConfidence: v.Confidence, weightedScore: weighted}
			}
		}
	}

	candidates := make([]*candidate, 0, len(merged))
	for _, c := range merged {
		if float64(c.hit.Score) < e.similarityThreshold {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weightedScore != candidates[j].weightedScore {
			return candidates[i].weightedScore > candidates[j].weightedScore
		}
		if candidates[i].queryConfidence != candidates[j].queryConfidence {
			return candidates[i].queryConfidence > candidates[j].queryConfidence
		}
		if candidates[i].hit.Score != candidates[j].hit.Score {
			return candidates[i].hit.Score > candidates[j].hit.Score
		}
		return candidates[i].hit.ID < candidates[j].hit.ID
	})

	if len(candidates) == 0 {
		return Response{
			Query:                 queryText,
			Response:              "I don't have enough context to answer that question.",
			Sources:               []Source{},
			TotalSources:          0,
			QueryEnhancement:      enhancement,
			RequiresClarification: true,
			Timestamp:             time.Now().UTC(),
		}, nil
	}

	rerankScores := map[int64]float64{}
	reranked := false
	if e.rerankEnabled && e.reranker != nil {
		rerankCandidates := make([]rerank.Candidate, len(candidates))
		for i, c := range candidates {
			rerankCandidates[i] = rerank.Candidate{ID: fmt.Sprintf("%d", c.hit.ID), Text: c.hit.Text}
		}
		scored, err := e.reranker.Rerank(ctx, queryText, rerankCandidates, e.rerankTopK)
		if err == nil && len(scored) > 0 {
			// Reorder candidates to match the reranked order, dropping
			// anything reranking didn't keep.
			for _, s := range scored {
				rerankScores[candidates[indexByID(candidates, s.Candidate.ID)].hit.ID] = s.RerankScore
			}
			reordered := make([]*candidate, 0, len(scored))
			for _, s := range scored {
				idx := indexByID(candidates, s.Candidate.ID)
				if idx >= 0 {
					reordered = append(reordered, candidates[idx])
				}
			}
			candidates = reordered
			reranked = true
		}
		// Reranker failure falls soft: keep the similarity-ordered list.
	}

	// The reranker already clipped to rerankTopK; only the non-reranked
	// path needs the topK clip applied here, or reranked results that
	// legitimately survive beyond topK (a normal rerank_top_k > top_k
	// config) would be silently dropped.
	if !reranked && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	promptChunks := candidates
	if len(promptChunks) > 5 {
		promptChunks = promptChunks[:5]
	}
	var contextBuilder strings.Builder
	for _, c := range promptChunks {
		contextBuilder.WriteString(c.hit.Text)
		contextBuilder.WriteString("\n\n")
	}

	prompt := fmt.Sprintf("Based on the following context, answer: %s\n\nContext:\n%s\nAnswer:", queryText, contextBuilder.String())

	sources := make([]Source, len(candidates))
	for i, c := range candidates {
		preview := c.hit.Text
		if len(preview) > 200 {
			preview = preview[:200]
		}
		src := Source{
			TextPreview:     preview,
			SimilarityScore: c.hit.Score,
			DocID:           c.hit.DocID,
			Metadata:        c.hit.Metadata,
		}
		if score, ok := rerankScores[c.hit.ID]; ok {
			s := score
			src.RerankScore = &s
		}
		sources[i] = src
	}

	answer, err := e.llmClient.Generate(ctx, prompt, 512, 0.2)
	if err != nil {
		return Response{
			Query:            queryText,
			Response:         "I found relevant information but encountered an error generating a response. Please see the sources below.",
			Sources:          sources,
			TotalSources:     len(sources),
			QueryEnhancement: enhancement,
			Timestamp:        time.Now().UTC(),
		}, nil
	}

	return Response{
		Query:            queryText,
		Response:         answer,
		Sources:          sources,
		TotalSources:     len(sources),
		QueryEnhancement: enhancement,
		Timestamp:        time.Now().UTC(),
	}, nil
}

func indexByID(candidates []*candidate, id string) int {
	for i, c := range candidates {
		if fmt.Sprintf("%d", c.hit.ID) == id {
			return i
		}
	}
	return -1
}
