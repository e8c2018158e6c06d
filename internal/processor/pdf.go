// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/herr"
)

// PDFProcessor extracts text from PDFs via go-fitz (MuPDF), one chunk per
// page so callers get page-level structural metadata for free.
type PDFProcessor struct{}

func (p *PDFProcessor) CanProcess(path string) bool {
	return extOf(path) == ".pdf"
}

func (p *PDFProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open PDF", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	chunks := make([]chunker.Chunk, 0, numPages)
	for i := 0; i < numPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue // non-fatal: skip unreadable pages, keep the rest
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		chunkMeta := make(map[string]any, len(meta)+1)
		for k, v := range meta {
			chunkMeta[k] = v
		}
		chunkMeta["page"] = i + 1
		chunks = append(chunks, chunker.Chunk{
			Text:           text,
			ChunkIndex:     len(chunks),
			ChunkingMethod: "structural",
			Metadata:       chunkMeta,
		})
	}

	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("no text extracted from PDF: %s", path)
	}

	return Result{Status: "success", Chunks: chunks, Metadata: map[string]any{"page_count": numPages}}, nil
}
