// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package processor implements the extension -> extractor registry: each
// extractor decides for itself whether it can handle a path, and the
// first match wins. Extractors that pre-chunk (PDF by page, Excel by
// sheet) return structural chunks directly; extractors that only recover
// raw text leave Chunks empty and let the ingestion engine run it through
// internal/chunker.
package processor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/herr"
)

// Result is what an extractor hands back to the ingestion engine.
type Result struct {
	Status   string // "success" or "partial"
	Text     string // populated when the extractor did not pre-chunk
	Chunks   []chunker.Chunk
	Metadata map[string]any
	Images   []string
	Tables   []string
}

// Processor is the extractor contract named in the component design.
type Processor interface {
	CanProcess(path string) bool
	Process(ctx context.Context, path string, meta map[string]any) (Result, error)
}

// Registry holds the ordered list of extractors, first match wins.
type Registry struct {
	processors []Processor
	fallback   Processor
}

// NewRegistry builds the default registry wired to every extractor this
// deployment ships.
func NewRegistry() *Registry {
	r := &Registry{fallback: &TextProcessor{}}
	r.Register(&PDFProcessor{})
	r.Register(&DOCXProcessor{})
	r.Register(&ExcelProcessor{})
	r.Register(&EmailProcessor{})
	r.Register(&TicketProcessor{})
	r.Register(&HTMLProcessor{})
	r.Register(&TextProcessor{})
	return r
}

// Register appends an extractor to the registry. Order matters: earlier
// registrations are tried first.
func (r *Registry) Register(p Processor) {
	r.processors = append(r.processors, p)
}

// Select returns the first extractor whose CanProcess matches path, or
// the generic text fallback if none do.
func (r *Registry) Select(path string) Processor {
	for _, p := range r.processors {
		if p.CanProcess(path) {
			return p
		}
	}
	return r.fallback
}

// Process runs the selected extractor, and on failure falls back to
// plain-text extraction for that file, per the registry's non-fatal
// extractor-failure contract.
func (r *Registry) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	p := r.Select(path)
	res, err := p.Process(ctx, path, meta)
	if err == nil {
		return res, nil
	}
	if _, isFallback := p.(*TextProcessor); isFallback {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "generic text extraction failed", err)
	}

	fallbackRes, fallbackErr := r.fallback.Process(ctx, path, meta)
	if fallbackErr != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "extractor failed and plain-text fallback also failed", err).
			WithDetail("fallback_error", fallbackErr.Error())
	}
	fallbackRes.Status = "partial"
	return fallbackRes, nil
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
