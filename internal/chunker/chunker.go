// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package chunker turns extracted document text into an ordered sequence
// of chunks ready for embedding, as a standalone component the ingestion
// engine calls after extraction rather than a splitter wired directly
// into each extractor.
package chunker

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/northbound/hive-rag/internal/embeddings"
)

// Chunk is the transient unit handed to the embedder and vector store.
// It lives only between chunking and indexing.
type Chunk struct {
	Text           string
	ChunkIndex     int
	ChunkingMethod string
	Metadata       map[string]any
}

// Method selects the chunking strategy.
type Method string

const (
	MethodSize     Method = "size"
	MethodSemantic Method = "semantic"
)

// Config carries the tunables from internal/config's ChunkingConfig.
type Config struct {
	Method              Method
	ChunkSize           int
	ChunkOverlap        int
	SimilarityThreshold float32
}

// Chunker splits text into chunks per Config, falling back to size-based
// whenever semantic chunking can't run (no embedder, or the embedder
// errors mid-document).
type Chunker struct {
	cfg      Config
	embedder embeddings.Embedder // optional; required only for MethodSemantic
}

// New constructs a Chunker. embedder may be nil; semantic chunking then
// always falls back to size-based.
func New(cfg Config, embedder embeddings.Embedder) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 100
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.5
	}
	return &Chunker{cfg: cfg, embedder: embedder}
}

// ChunkText splits text according to the configured method, stamping
// caller-supplied document metadata onto every chunk.
func (c *Chunker) ChunkText(ctx context.Context, text string, docMeta map[string]any) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	if c.cfg.Method == MethodSemantic && c.embedder != nil {
		chunks, err := c.chunkSemantic(ctx, sentences)
		if err == nil {
			return c.stamp(chunks, docMeta), nil
		}
		// Embedding unavailable mid-document: fall back to size-based chunking.
	}

	chunks := c.chunkBySize(sentences)
	for i := range chunks {
		chunks[i].ChunkingMethod = methodLabel(c.cfg.Method, c.embedder)
	}
	return c.stamp(chunks, docMeta), nil
}

// methodLabel is only reached via the size-based path: either the caller
// asked for size chunking directly, or semantic chunking was requested
// and couldn't run.
func methodLabel(requested Method, embedder embeddings.Embedder) string {
	if requested == MethodSemantic {
		return "fallback"
	}
	return "size"
}

func (c *Chunker) stamp(chunks []Chunk, docMeta map[string]any) []Chunk {
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any, len(docMeta))
		}
		for k, v := range docMeta {
			if k == "metadata" {
				continue // registry invariant: no nested metadata key
			}
			if _, exists := chunks[i].Metadata[k]; !exists {
				chunks[i].Metadata[k] = v
			}
		}
		chunks[i].ChunkIndex = i
	}
	return chunks
}

// chunkBySize greedily packs sentences into chunks of at most ChunkSize
// characters, carrying ChunkOverlap characters of tail text into the next
// chunk. The carried overlap is dropped when it would push the next chunk
// past ChunkSize. Never splits a sentence to meet the budget.
func (c *Chunker) chunkBySize(sentences []string) []Chunk {
	var chunks []Chunk
	var cur strings.Builder
	var pending []string // sentences composing the current chunk, for overlap computation

	flush := func() {
		text := strings.TrimSpace(cur.String())
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{Text: text})
	}

	for _, s := range sentences {
		if cur.Len() > 0 && cur.Len()+len(s)+1 > c.cfg.ChunkSize {
			flush()

			// carry overlap: walk back from the end of pending sentences
			// until we've accumulated ChunkOverlap characters.
			overlap := tailOverlap(pending, c.cfg.ChunkOverlap)
			if overlap != "" && len(overlap)+1+len(s) > c.cfg.ChunkSize {
				overlap = ""
			}
			cur.Reset()
			cur.WriteString(overlap)
			pending = nil
			if overlap != "" {
				pending = append(pending, overlap)
			}
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(s)
		pending = append(pending, s)
	}
	flush()

	return chunks
}

// tailOverlap returns the trailing whole sentences whose combined length
// (separators not counted) stays within n characters. The last sentence is
// always included, even when it alone is longer than n.
func tailOverlap(sentences []string, n int) string {
	if n <= 0 || len(sentences) == 0 {
		return ""
	}
	var kept []string
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		s := sentences[i]
		if total+len(s) > n && len(kept) > 0 {
			break
		}
		kept = append([]string{s}, kept...)
		total += len(s)
		if total >= n {
			break
		}
	}
	return strings.Join(kept, " ")
}

// chunkSemantic embeds each sentence and places a boundary wherever
// consecutive-sentence cosine similarity drops below SimilarityThreshold,
// still respecting ChunkSize as a hard ceiling.
func (c *Chunker) chunkSemantic(ctx context.Context, sentences []string) ([]Chunk, error) {
	vecs, err := c.embedder.EmbedTexts(ctx, sentences)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	var cur strings.Builder
	curLen := 0

	for i, s := range sentences {
		boundary := false
		if i > 0 {
			sim := cosineSimilarity(vecs[i-1], vecs[i])
			if sim < c.cfg.SimilarityThreshold {
				boundary = true
			}
		}
		if curLen > 0 && (boundary || curLen+len(s)+1 > c.cfg.ChunkSize) {
			chunks = append(chunks, Chunk{Text: strings.TrimSpace(cur.String()), ChunkingMethod: string(MethodSemantic)})
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(s)
		curLen += len(s) + 1
	}
	if curLen > 0 {
		chunks = append(chunks, Chunk{Text: strings.TrimSpace(cur.String()), ChunkingMethod: string(MethodSemantic)})
	}
	return chunks, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace, and on paragraph breaks, preserving every other character
// so no text is lost across a chunk boundary.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cur.WriteRune(r)

		isEnd := r == '.' || r == '!' || r == '?'
		isParaBreak := r == '\n' && i+1 < len(runes) && runes[i+1] == '\n'

		if isParaBreak {
			cur.WriteRune(runes[i+1])
			i++
			s := strings.TrimSpace(cur.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
			continue
		}

		if isEnd && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			s := strings.TrimSpace(cur.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
