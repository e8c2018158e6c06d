// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/northbound/hive-rag/internal/herr"
)

// DOCXProcessor extracts plain text from Word documents; it does not
// pre-chunk, leaving that to internal/chunker.
type DOCXProcessor struct{}

func (p *DOCXProcessor) CanProcess(path string) bool {
	return extOf(path) == ".docx"
}

func (p *DOCXProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open DOCX file", err)
	}
	defer doc.Close()

	text := strings.TrimSpace(doc.Editable().GetContent())
	if text == "" {
		return Result{}, fmt.Errorf("no text extracted from DOCX: %s", path)
	}

	return Result{Status: "success", Text: text}, nil
}
