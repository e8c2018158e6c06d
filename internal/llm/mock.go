// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient echoes a deterministic response derived from the prompt,
// for tests and offline development.
type MockClient struct{}

// NewMockClient builds a MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate returns a short canned answer referencing the prompt.
func (c *MockClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return fmt.Sprintf("[mock response] %s", trimmed), nil
}
