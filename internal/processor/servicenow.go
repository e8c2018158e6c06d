// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/northbound/hive-rag/internal/herr"
)

// TicketProcessor extracts a ServiceNow ticket export: a header block of
// "Field: value" lines (number, short_description, priority, state,
// assigned_to, ...) followed by a blank line and the ticket's
// description/work-notes body, mirroring the field/header-body shape
// EmailProcessor reads from an .eml file.
type TicketProcessor struct{}

func (p *TicketProcessor) CanProcess(path string) bool {
	if extOf(path) == ".ticket" {
		return true
	}
	base := strings.ToLower(filepath.Base(path))
	return strings.Contains(base, "servicenow") && (extOf(path) == ".txt" || extOf(path) == ".json")
}

var ticketHeaderFields = []string{"number", "short_description", "priority", "state", "assigned_to", "category"}

func (p *TicketProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open ticket file", err)
	}
	defer file.Close()

	headers := map[string]string{}
	var body strings.Builder
	inBody := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.TrimSpace(line) == "" {
				inBody = true
				continue
			}
			if key, value, ok := strings.Cut(line, ":"); ok {
				headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
				continue
			}
			// No colon on a header-position line: the file has no header
			// block at all, treat everything as body.
			inBody = true
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to read ticket file", err)
	}

	var builder strings.Builder
	for _, field := range ticketHeaderFields {
		if v, ok := headers[field]; ok && v != "" {
			builder.WriteString(fmt.Sprintf("%s: %s\n", field, v))
		}
	}
	builder.WriteString("\n")
	builder.WriteString(strings.TrimSpace(body.String()))

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return Result{}, fmt.Errorf("no content extracted from ticket file: %s", path)
	}

	extraMeta := map[string]any{"source_type": "servicenow_ticket"}
	for _, field := range ticketHeaderFields {
		if v, ok := headers[field]; ok && v != "" {
			extraMeta[field] = v
		}
	}

	return Result{Status: "success", Text: text, Metadata: extraMeta}, nil
}
