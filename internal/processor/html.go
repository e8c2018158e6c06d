// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"

	"github.com/northbound/hive-rag/internal/herr"
)

// HTMLProcessor strips script/style/noscript tags and returns the
// remaining visible text.
type HTMLProcessor struct{}

func (p *HTMLProcessor) CanProcess(path string) bool {
	ext := extOf(path)
	return ext == ".html" || ext == ".htm"
}

func (p *HTMLProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open HTML file", err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to parse HTML", err)
	}

	doc.Find("script, style, noscript").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Text()
	if text == "" {
		return Result{}, fmt.Errorf("no text extracted from HTML: %s", path)
	}

	return Result{Status: "success", Text: text}, nil
}
