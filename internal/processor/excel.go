// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/herr"
)

// ExcelProcessor "markdownifies" spreadsheet rows, one chunk per sheet so
// the sheet name travels as structural metadata.
type ExcelProcessor struct{}

func (p *ExcelProcessor) CanProcess(path string) bool {
	ext := extOf(path)
	return ext == ".xlsx" || ext == ".xls"
}

func (p *ExcelProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open Excel file", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return Result{}, fmt.Errorf("no sheets found in Excel file: %s", path)
	}

	var chunks []chunker.Chunk
	for _, sheetName := range sheetList {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		headers := rows[0]
		if len(headers) == 0 {
			continue
		}

		var builder strings.Builder
		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			row := rows[rowIdx]
			var parts []string
			for colIdx, header := range headers {
				if colIdx >= len(row) || row[colIdx] == "" {
					continue
				}
				value := strings.TrimSpace(row[colIdx])
				if value == "" {
					continue
				}
				headerName := strings.TrimSpace(header)
				if headerName == "" {
					headerName = fmt.Sprintf("Column %d", colIdx+1)
				}
				parts = append(parts, fmt.Sprintf("%s: %s", headerName, value))
			}
			if len(parts) > 0 {
				builder.WriteString(fmt.Sprintf("Row %d: %s\n", rowIdx+1, strings.Join(parts, ", ")))
			}
		}

		sheetText := strings.TrimSpace(builder.String())
		if sheetText == "" {
			continue
		}

		chunkMeta := make(map[string]any, len(meta)+1)
		for k, v := range meta {
			chunkMeta[k] = v
		}
		chunkMeta["sheet"] = sheetName
		chunks = append(chunks, chunker.Chunk{
			Text:           sheetText,
			ChunkIndex:     len(chunks),
			ChunkingMethod: "structural",
			Metadata:       chunkMeta,
		})
	}

	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("no content extracted from Excel file: %s", path)
	}

	return Result{Status: "success", Chunks: chunks, Metadata: map[string]any{"sheet_count": len(sheetList)}}, nil
}
