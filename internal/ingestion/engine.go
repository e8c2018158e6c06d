// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package ingestion orchestrates extraction, chunking, embedding, and
// indexing for one document at a time, with replace-on-update semantics
// keyed by document identity. It is the one place that writes to both
// the vector store and the metadata store together.
package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/logger"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/processor"
	"github.com/northbound/hive-rag/internal/vectorstore"
	"github.com/northbound/hive-rag/internal/workerpool"
)

// Result is the shape returned by every ingest operation.
type Result struct {
	Status           string `json:"status"`
	FileID           string `json:"file_id,omitempty"`
	ChunksCreated    int    `json:"chunks_created"`
	IsUpdate         bool   `json:"is_update"`
	OldVectorsDeleted int   `json:"old_vectors_deleted"`
	Reason           string `json:"reason,omitempty"`
}

// DirectoryResult wraps ingest_directory's per-file results.
type DirectoryResult struct {
	Results map[string]Result `json:"results"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Engine is component C7.
type Engine struct {
	store      vectorstore.Store
	meta       *metadatastore.Store
	registry   *processor.Registry
	chunker    *chunker.Chunker
	embedder   embeddings.Embedder
	tagger     *workerpool.Pool

	identityMu sync.Mutex
	inFlight   map[string]*sync.Mutex // doc identity -> lock, serializes same-identity ingests
}

// New constructs the ingestion engine from its wired collaborators.
func New(store vectorstore.Store, meta *metadatastore.Store, registry *processor.Registry, ch *chunker.Chunker, embedder embeddings.Embedder) *Engine {
	return &Engine{
		store:    store,
		meta:     meta,
		registry: registry,
		chunker:  ch,
		embedder: embedder,
		inFlight: make(map[string]*sync.Mutex),
	}
}

// SetTagger wires the optional post-ingest tagging job onto the worker
// pool. Without it, newly indexed chunks are never tagged.
func (e *Engine) SetTagger(pool *workerpool.Pool) {
	e.tagger = pool
}

// documentIdentity computes the doc_id root with priority
// doc_path > filename > derived(file_path).
func documentIdentity(filePath string, userMeta map[string]any) string {
	if docPath, ok := userMeta["doc_path"].(string); ok && docPath != "" {
		return normalizeIdentity(docPath)
	}
	if filename, ok := userMeta["filename"].(string); ok && filename != "" {
		return normalizeIdentity(filename)
	}
	if filePath != "" {
		return normalizeIdentity(filePath)
	}
	return normalizeIdentity("text")
}

func normalizeIdentity(s string) string {
	s = strings.TrimPrefix(s, "/")
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ".", "_")
	return replacer.Replace(s)
}

// lockIdentity returns the per-identity mutex, creating it on first use,
// so concurrent ingests of the same document identity serialize while
// different identities proceed in parallel.
func (e *Engine) lockIdentity(identity string) func() {
	e.identityMu.Lock()
	mu, ok := e.inFlight[identity]
	if !ok {
		mu = &sync.Mutex{}
		e.inFlight[identity] = mu
	}
	e.identityMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// IngestFile extracts, chunks, embeds, and indexes a file on disk.
func (e *Engine) IngestFile(ctx context.Context, path string, userMeta map[string]any) (Result, error) {
	if userMeta == nil {
		userMeta = map[string]any{}
	}
	if _, ok := userMeta["filename"]; !ok {
		userMeta["filename"] = filepath.Base(path)
	}
	userMeta["file_path"] = path

	identity := documentIdentity(path, userMeta)
	unlock := e.lockIdentity(identity)
	defer unlock()

	res, err := e.replaceOnUpdate(ctx, identity)
	if err != nil {
		return Result{}, err
	}

	extraction, err := e.registry.Process(ctx, path, userMeta)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "extraction failed", err)
	}

	return e.indexExtraction(ctx, identity, extraction, userMeta, res)
}

// IngestText embeds and indexes caller-supplied raw text directly,
// bypassing the processor registry.
func (e *Engine) IngestText(ctx context.Context, text string, userMeta map[string]any) (Result, error) {
	if userMeta == nil {
		userMeta = map[string]any{}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Status: "skipped", Reason: "no_content"}, nil
	}

	identity := documentIdentity("", userMeta)
	unlock := e.lockIdentity(identity)
	defer unlock()

	deleted, err := e.replaceOnUpdate(ctx, identity)
	if err != nil {
		return Result{}, err
	}

	extraction := processor.Result{Status: "success", Text: text}
	return e.indexExtraction(ctx, identity, extraction, userMeta, deleted)
}

// indexExtraction runs steps 3-7 of the pipeline given already-extracted
// content: chunk if needed, embed, write to the vector store, then write
// the metadata store record.
func (e *Engine) indexExtraction(ctx context.Context, identity string, extraction processor.Result, userMeta map[string]any, oldVectorsDeleted int) (Result, error) {
	chunks := extraction.Chunks
	if len(chunks) == 0 {
		if strings.TrimSpace(extraction.Text) == "" {
			return Result{Status: "skipped", Reason: "no_content", IsUpdate: oldVectorsDeleted > 0, OldVectorsDeleted: oldVectorsDeleted}, nil
		}
		var err error
		chunks, err = e.chunker.ChunkText(ctx, extraction.Text, userMeta)
		if err != nil {
			return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "chunking failed", err)
		}
	} else {
		for i := range chunks {
			for k, v := range userMeta {
				if k == "metadata" {
					continue
				}
				if _, exists := chunks[i].Metadata[k]; !exists {
					if chunks[i].Metadata == nil {
						chunks[i].Metadata = map[string]any{}
					}
					chunks[i].Metadata[k] = v
				}
			}
		}
	}

	if len(chunks) == 0 {
		return Result{Status: "skipped", Reason: "no_content", IsUpdate: oldVectorsDeleted > 0, OldVectorsDeleted: oldVectorsDeleted}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindEmbedding, herr.SeverityHigh, "embedding failed", err)
	}

	metas := make([]vectorstore.Metadata, len(chunks))
	for i, c := range chunks {
		m := vectorstore.Metadata{}
		for k, v := range c.Metadata {
			m[k] = v
		}
		m["text"] = c.Text
		m["doc_id"] = identity
		m["chunk_index"] = i
		m["chunking_method"] = c.ChunkingMethod
		if docPath, ok := userMeta["doc_path"].(string); ok {
			m["doc_path"] = docPath
		}
		if filePath, ok := userMeta["file_path"].(string); ok {
			m["file_path"] = filePath
		}
		if filename, ok := userMeta["filename"].(string); ok {
			m["filename"] = filename
		}
		metas[i] = m
	}

	vectorIDs, err := e.store.AddVectors(ctx, vectors, metas)
	if err != nil {
		// Already soft-deleted old vectors remain soft-deleted by
		// design; we do not roll back.
		return Result{}, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "vector indexing failed", err)
	}

	e.enqueueTagging(ctx, vectorIDs, chunks)

	filePath, _ := userMeta["file_path"].(string)
	fileType := ""
	if filePath != "" {
		fileType = strings.ToLower(filepath.Ext(filePath))
	}
	var fileSize int64
	if filePath != "" {
		if info, statErr := os.Stat(filePath); statErr == nil {
			fileSize = info.Size()
		}
	}

	rec, err := e.meta.Put(identity, fileSize, fileType, len(chunks), vectorIDs, userMeta)
	if err != nil {
		// Step 7 failure: log and continue, vectors remain queryable.
		logger.Warnf("metadata store write failed for %s: %v", identity, err)
		return Result{
			Status:            "success",
			ChunksCreated:     len(chunks),
			IsUpdate:          oldVectorsDeleted > 0,
			OldVectorsDeleted: oldVectorsDeleted,
		}, nil
	}

	return Result{
		Status:            "success",
		FileID:            rec.FileID,
		ChunksCreated:      len(chunks),
		IsUpdate:           oldVectorsDeleted > 0,
		OldVectorsDeleted:  oldVectorsDeleted,
	}, nil
}

// enqueueTagging dispatches one tagging job per newly indexed chunk,
// skipped entirely when no tagger is wired. While the queue is full the
// enqueue waits until space frees or ctx ends; an enqueue error is logged
// and does not fail ingestion.
func (e *Engine) enqueueTagging(ctx context.Context, vectorIDs []int64, chunks []chunker.Chunk) {
	if e.tagger == nil {
		return
	}
	for i, id := range vectorIDs {
		payload := workerpool.TaggingPayload{VectorID: id, Text: chunks[i].Text}
		if err := e.tagger.Enqueue(ctx, workerpool.JobTypeTagging, payload); err != nil {
			logger.Warnf("failed to enqueue tagging job for vector %d: %v", id, err)
		}
	}
}

// replaceOnUpdate soft-deletes the vector ids listed in identity's current
// metadata-store record (step 2), returning the count removed. The vector
// store itself is not scanned: vectors with no such record (for example
// after a failed metadata write) are not found.
func (e *Engine) replaceOnUpdate(ctx context.Context, identity string) (int, error) {
	prior, ok := e.meta.Get(identity)
	if !ok {
		return 0, nil
	}
	if len(prior.VectorIDs) == 0 {
		return 0, nil
	}
	n, err := e.store.DeleteVectors(ctx, prior.VectorIDs)
	if err != nil {
		return 0, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to soft-delete prior vectors", err)
	}
	return n, nil
}

// DeleteFile removes a document's vectors by identity (path or doc_path),
// per delete_file's contract: deleting a non-existent identity succeeds
// with vectors_deleted = 0.
func (e *Engine) DeleteFile(ctx context.Context, identity string) (int, error) {
	identity = normalizeIdentity(identity)
	unlock := e.lockIdentity(identity)
	defer unlock()

	n, err := e.replaceOnUpdate(ctx, identity)
	if err != nil {
		return 0, err
	}
	if err := e.meta.Delete(identity); err != nil {
		return n, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to remove metadata record", err)
	}
	return n, nil
}

// IngestDirectory walks path and ingests every file whose name matches
// one of patterns (all files when patterns is empty). A single file's
// failure is recorded and does not stop the walk.
func (e *Engine) IngestDirectory(ctx context.Context, root string, patterns []string) (DirectoryResult, error) {
	result := DirectoryResult{Results: map[string]Result{}, Errors: map[string]string{}}

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			result.Errors[path] = walkErr.Error()
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if len(patterns) > 0 && !matchesAny(path, patterns) {
			return nil
		}

		res, ingestErr := e.IngestFile(ctx, path, map[string]any{})
		if ingestErr != nil {
			result.Errors[path] = ingestErr.Error()
			return nil
		}
		result.Results[path] = res
		return nil
	})
	if err != nil {
		return result, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "directory walk failed", err)
	}
	return result, nil
}

func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
