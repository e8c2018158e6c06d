// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package workerpool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/logger"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

// JobTypeTagging is the job Type routed to the tagging handler.
const JobTypeTagging = "tagging"

// TaggingPayload names the vector to tag and the text to derive tags
// from, run as a post-ingest job on the worker pool so a slow LLM call
// never blocks the ingestion request.
type TaggingPayload struct {
	VectorID int64  `json:"vector_id"`
	Text     string `json:"text"`
}

// NewTaggingHandler builds a HandlerFunc that asks llmClient for up to
// five topic tags and writes them back onto the chunk's metadata as
// "tags".
func NewTaggingHandler(llmClient llm.Client, store vectorstore.Store) HandlerFunc {
	return func(ctx context.Context, job Job) error {
		var payload TaggingPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return herr.Wrap(herr.KindAPI, herr.SeverityLow, "corrupt tagging job payload", err)
		}

		snippet := payload.Text
		if len(snippet) > 2000 {
			snippet = snippet[:2000]
		}

		tags, err := askForTags(ctx, llmClient, snippet)
		if err != nil {
			logger.Warnf("tagging: llm call failed for vector %d, using fallback: %v", payload.VectorID, err)
			tags = fallbackTags(snippet)
		}
		if len(tags) == 0 {
			return nil
		}

		return store.UpdateMetadata(ctx, payload.VectorID, vectorstore.Metadata{"tags": tags})
	}
}

func askForTags(ctx context.Context, llmClient llm.Client, content string) ([]string, error) {
	prompt := fmt.Sprintf(`Analyze this document and return a JSON array of up to 5 relevant tags (e.g., "legal", "invoice", "urgent", "proposal"). Return ONLY the JSON array, no other text.

Document content:
%s

Return format: ["tag1", "tag2", "tag3"]`, content)

	answer, err := llmClient.Generate(ctx, prompt, 128, 0.0)
	if err != nil {
		return nil, err
	}

	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	answer = strings.TrimSpace(answer)

	var tags []string
	if err := json.Unmarshal([]byte(answer), &tags); err != nil {
		return fallbackTags(content), nil
	}

	if len(tags) > 5 {
		tags = tags[:5]
	}
	return tags, nil
}

// fallbackTags applies simple keyword matching when the LLM response
// can't be parsed as JSON or the call itself failed.
func fallbackTags(content string) []string {
	lower := strings.ToLower(content)
	var tags []string

	add := func(tag string, keywords ...string) {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				return
			}
		}
	}

	add("legal", "legal", "law", "contract")
	add("finance", "invoice", "billing", "payment")
	add("urgent", "urgent", "asap", "immediate")
	add("proposal", "proposal", "quote")
	add("confidential", "confidential", "secret")

	return tags
}
