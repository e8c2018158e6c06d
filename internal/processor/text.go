// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/northbound/hive-rag/internal/herr"
)

// TextProcessor reads a file verbatim as UTF-8 text. It both claims
// .txt/.md directly and serves as the registry's generic fallback for
// any extension nothing else recognizes.
type TextProcessor struct{}

func (p *TextProcessor) CanProcess(path string) bool {
	ext := extOf(path)
	return ext == ".txt" || ext == ".md"
}

func (p *TextProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to read text file", err)
	}

	text := string(content)
	if text == "" {
		return Result{}, fmt.Errorf("no content in text file: %s", path)
	}

	return Result{Status: "success", Text: text}, nil
}
