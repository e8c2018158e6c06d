// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mnako/letters"

	"github.com/northbound/hive-rag/internal/herr"
)

// EmailProcessor extracts header + body text from an .eml file.
type EmailProcessor struct{}

func (p *EmailProcessor) CanProcess(path string) bool {
	return extOf(path) == ".eml"
}

func (p *EmailProcessor) Process(ctx context.Context, path string, meta map[string]any) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to open EML file", err)
	}
	defer file.Close()

	email, err := letters.ParseEmail(file)
	if err != nil {
		return Result{}, herr.Wrap(herr.KindIngestion, herr.SeverityMedium, "failed to parse EML file", err)
	}

	var builder strings.Builder
	if email.Headers.Subject != "" {
		builder.WriteString(fmt.Sprintf("Subject: %s\n", email.Headers.Subject))
	}
	if len(email.Headers.From) > 0 {
		from := email.Headers.From[0]
		sender := from.Address
		if from.Name != "" {
			sender = fmt.Sprintf("%s <%s>", from.Name, from.Address)
		}
		builder.WriteString(fmt.Sprintf("Sender: %s\n", sender))
	}
	if !email.Headers.Date.IsZero() {
		builder.WriteString(fmt.Sprintf("Date: %s\n", email.Headers.Date.Format(time.RFC3339)))
	}
	builder.WriteString("\n")

	bodyText := email.Text
	if bodyText == "" {
		bodyText = email.HTML
	}
	if bodyText != "" {
		builder.WriteString(bodyText)
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return Result{}, fmt.Errorf("no content extracted from EML: %s", path)
	}

	extraMeta := map[string]any{}
	if email.Headers.Subject != "" {
		extraMeta["subject"] = email.Headers.Subject
	}
	if !email.Headers.Date.IsZero() {
		extraMeta["email_date"] = email.Headers.Date.Format(time.RFC3339)
	}

	return Result{Status: "success", Text: result, Metadata: extraMeta}, nil
}
