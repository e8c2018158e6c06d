// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_MockProviderNeedsNoCredentials(t *testing.T) {
	client, err := New(Config{Provider: "mock"})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "what is the capital of France?", 50, 0.2)
	require.NoError(t, err)
	require.Contains(t, out, "capital of France")
}

func TestNew_OpenAIWithoutAPIKeyFails(t *testing.T) {
	_, err := New(Config{Provider: "openai"})
	require.Error(t, err)
}

func TestNew_UnknownProviderFails(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
}
