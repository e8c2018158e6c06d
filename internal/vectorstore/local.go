// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectorstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/northbound/hive-rag/internal/herr"
)

// LocalStore is the default vector store backend: an in-process dense
// index with brute-force cosine search, guarded by a single-writer /
// multi-reader lock, persisted to two sibling files under its data
// directory (index.gob, sidecar.gob) with write-to-temp-then-rename.
//
// coder/hnsw (used by Aman-CERP-amanmcp's HNSWStore) was the natural
// upgrade path for the index itself, but its persistence story doesn't
// match this store's two-file, assert-on-load contract, and the
// expected concurrency (dozens of in-flight requests) doesn't need
// approximate search; brute-force cosine keeps correctness easy to verify.
type LocalStore struct {
	mu        sync.RWMutex
	dimension int
	dataDir   string

	nextID  int64
	ids     []int64
	vectors map[int64][]float32
	metas   map[int64]Metadata
}

type persistedIndex struct {
	Dimension int
	NextID    int64
	IDs       []int64
	Vectors   map[int64][]float32
}

type persistedSidecar struct {
	Metas map[int64]Metadata
}

// NewLocalStore constructs a store fixed at dimension dim, persisting
// under dataDir/vectors/.
func NewLocalStore(dim int, dataDir string) *LocalStore {
	return &LocalStore{
		dimension: dim,
		dataDir:   dataDir,
		vectors:   make(map[int64][]float32),
		metas:     make(map[int64]Metadata),
	}
}

func (s *LocalStore) AddVectors(ctx context.Context, vectors [][]float32, metas []Metadata) ([]int64, error) {
	if len(vectors) != len(metas) {
		return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "vectors and metadata length mismatch")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "dimension mismatch").
				WithDetail("expected", s.dimension).WithDetail("got", len(v))
		}
	}
	for _, m := range metas {
		if _, nested := m["metadata"]; nested {
			return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "metadata must be flat: nested metadata key present")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, len(vectors))
	for i, v := range vectors {
		id := s.nextID
		s.nextID++

		vecCopy := make([]float32, len(v))
		copy(vecCopy, v)

		s.ids = append(s.ids, id)
		s.vectors[id] = vecCopy
		s.metas[id] = stampAdded(metas[i])
		ids[i] = id
	}

	return ids, nil
}

func (s *LocalStore) Search(ctx context.Context, query []float32, k int) ([]ScoredHit, error) {
	if len(query) != s.dimension {
		return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "dimension mismatch").
			WithDetail("expected", s.dimension).WithDetail("got", len(query))
	}
	if k <= 0 {
		k = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]ScoredHit, 0, len(s.ids))
	for _, id := range s.ids {
		if isDeleted(s.metas[id]) {
			continue
		}
		score := cosineSimilarity(query, s.vectors[id])
		hits = append(hits, ScoredHit{ID: id, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *LocalStore) SearchWithMetadata(ctx context.Context, query []float32, k int) ([]HitWithMetadata, error) {
	hits, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HitWithMetadata, 0, len(hits))
	for _, h := range hits {
		m := s.metas[h.ID]
		text, _ := m["text"].(string)
		docID, _ := m["doc_id"].(string)
		out = append(out, HitWithMetadata{
			ID:       h.ID,
			Score:    h.Score,
			Text:     text,
			DocID:    docID,
			Metadata: m.Clone(),
		})
	}
	return out, nil
}

func (s *LocalStore) DeleteVectors(ctx context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range ids {
		m, ok := s.metas[id]
		if !ok {
			continue
		}
		if isDeleted(m) {
			continue
		}
		m = m.Clone()
		m["deleted"] = true
		s.metas[id] = m
		n++
	}
	return n, nil
}

func (s *LocalStore) UpdateMetadata(ctx context.Context, id int64, patch Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metas[id]
	if !ok {
		return herr.New(herr.KindStorage, herr.SeverityMedium, "vector id not found").WithDetail("id", id)
	}

	merged := m.Clone()
	for k, v := range patch {
		if k == "deleted" {
			wasDeleted := isDeleted(m)
			newDeleted, _ := v.(bool)
			if wasDeleted && !newDeleted {
				continue // cannot un-delete via patch
			}
		}
		merged[k] = v
	}
	s.metas[id] = merged
	return nil
}

func (s *LocalStore) ClearIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	s.vectors = make(map[int64][]float32)
	s.metas = make(map[int64]Metadata)
	return nil
}

func (s *LocalStore) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for _, id := range s.ids {
		if !isDeleted(s.metas[id]) {
			active++
		}
	}
	return Stats{
		TotalVectors:  len(s.ids),
		ActiveVectors: active,
		Dimension:     s.dimension,
		IndexType:     "local-brute-force-cosine",
	}, nil
}

func (s *LocalStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	idx := persistedIndex{
		Dimension: s.dimension,
		NextID:    s.nextID,
		IDs:       append([]int64(nil), s.ids...),
		Vectors:   make(map[int64][]float32, len(s.vectors)),
	}
	for id, v := range s.vectors {
		idx.Vectors[id] = v
	}
	side := persistedSidecar{Metas: make(map[int64]Metadata, len(s.metas))}
	for id, m := range s.metas {
		side.Metas[id] = m
	}
	s.mu.RUnlock()

	dir := filepath.Join(s.dataDir, "vectors")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to create vectors directory", err)
	}

	if err := writeGobAtomic(filepath.Join(dir, "index.gob"), idx); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to persist index", err)
	}
	if err := writeGobAtomic(filepath.Join(dir, "sidecar.gob"), side); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to persist sidecar", err)
	}
	return nil
}

func (s *LocalStore) Load(ctx context.Context) error {
	dir := filepath.Join(s.dataDir, "vectors")
	indexPath := filepath.Join(dir, "index.gob")
	sidecarPath := filepath.Join(dir, "sidecar.gob")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil // nothing persisted yet
	}

	var idx persistedIndex
	if err := readGob(indexPath, &idx); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "corrupt index file", err)
	}
	var side persistedSidecar
	if err := readGob(sidecarPath, &side); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "corrupt sidecar file", err)
	}

	if idx.Dimension != s.dimension {
		return herr.New(herr.KindStorage, herr.SeverityCritical, "persisted dimension mismatch").
			WithDetail("expected", s.dimension).WithDetail("got", idx.Dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = idx.IDs
	s.nextID = idx.NextID
	s.vectors = idx.Vectors
	s.metas = side.Metas
	return nil
}

func writeGobAtomic(path string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func readGob(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
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
