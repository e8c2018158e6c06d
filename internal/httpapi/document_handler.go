// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/northbound/hive-rag/internal/audit"
	"github.com/northbound/hive-rag/internal/herr"
)

// queryRequest is POST /query's payload.
type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (a *api) handleQuery(w http.ResponseWriter, r *http.Request) {
	if a.deps.Query == nil {
		writeError(w, http.StatusServiceUnavailable, "query engine is not configured")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ctx, cancel := withDeadline(r, a.deps.Config.Deadlines.Query)
	defer cancel()

	resp, err := a.deps.Query.ProcessQuery(ctx, req.Query, req.TopK)
	if err != nil {
		if ctx.Err() != nil {
			writeError(w, http.StatusRequestTimeout, "query deadline exceeded")
			return
		}
		a.writeDomainErrorTracked(w, err)
		return
	}

	a.auditRecord(r, audit.ActionQuery, req.Query)
	writeJSON(w, http.StatusOK, resp)
}

// ingestTextRequest is POST /ingest's payload: raw text plus optional
// caller-supplied metadata.
type ingestTextRequest struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

func (a *api) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	ctx, cancel := withDeadline(r, a.deps.Config.Deadlines.TextIngest)
	defer cancel()

	result, err := a.deps.Ingestion.IngestText(ctx, req.Text, req.Metadata)
	if err != nil {
		if ctx.Err() != nil {
			writeError(w, http.StatusRequestTimeout, "ingest deadline exceeded")
			return
		}
		a.writeDomainErrorTracked(w, err)
		return
	}

	a.auditRecord(r, audit.ActionIngest, "text ingest")
	writeJSON(w, http.StatusOK, result)
}

// handleUpload accepts a multipart file upload, bounded by
// Retrieval.MaxFileSizeMB, writes it to a scratch location under the
// data root, and runs it through the ingestion engine exactly as a
// folder-monitor discovery would.
func (a *api) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.deps.Config.Retrieval.MaxFileSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	uploadDir := filepath.Join(a.deps.Config.DataRoot, "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		a.writeDomainErrorTracked(w, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to create upload directory", err))
		return
	}

	dest := filepath.Join(uploadDir, filepath.Base(header.Filename))
	out, err := os.Create(dest)
	if err != nil {
		a.writeDomainErrorTracked(w, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to stage uploaded file", err))
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		a.writeDomainErrorTracked(w, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to write uploaded file", err))
		return
	}
	out.Close()

	ctx, cancel := withDeadline(r, a.deps.Config.Deadlines.FileIngest)
	defer cancel()

	result, err := a.deps.Ingestion.IngestFile(ctx, dest, map[string]any{"filename": header.Filename})
	if err != nil {
		if ctx.Err() != nil {
			writeError(w, http.StatusRequestTimeout, "ingest deadline exceeded")
			return
		}
		a.writeDomainErrorTracked(w, err)
		return
	}

	a.auditRecord(r, audit.ActionIngest, header.Filename)
	writeJSON(w, http.StatusOK, result)
}

func (a *api) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docPath := chi.URLParam(r, "doc_path")
	if docPath == "" {
		writeError(w, http.StatusBadRequest, "doc_path is required")
		return
	}

	n, err := a.deps.Ingestion.DeleteFile(r.Context(), docPath)
	if err != nil {
		a.writeDomainErrorTracked(w, err)
		return
	}

	a.auditRecord(r, audit.ActionDelete, docPath)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "vectors_deleted": n})
}

func (a *api) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	records := a.deps.Meta.List()
	writeJSON(w, http.StatusOK, map[string]any{"documents": records, "count": len(records)})
}

func (a *api) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Vectors.ClearIndex(r.Context()); err != nil {
		a.writeDomainErrorTracked(w, err)
		return
	}
	if err := a.deps.Meta.Clear(); err != nil {
		a.writeDomainErrorTracked(w, err)
		return
	}

	a.auditRecord(r, audit.ActionDelete, "clear all documents")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (a *api) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.deps.Vectors.GetStats(r.Context())
	if err != nil {
		a.writeDomainErrorTracked(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.deps.Config.Redacted())
}
