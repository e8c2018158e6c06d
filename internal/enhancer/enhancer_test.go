// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package enhancer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnhance_ClassifiesDefinitionIntent(t *testing.T) {
	e := New()
	out := e.Enhance("What is the capital of France?")
	require.Equal(t, "definition", out.Intent.Type)
	require.Contains(t, out.Keywords, "capital")
	require.Contains(t, out.Keywords, "france")
}

func TestVariants_AlwaysAnchorsOriginalAtFullConfidence(t *testing.T) {
	e := New()
	out := e.Enhance("How do I reset my password?")
	variants := Variants(out)
	require.NotEmpty(t, variants)
	require.Equal(t, "How do I reset my password?", variants[0].Text)
	require.Equal(t, 1.0, variants[0].Confidence)
	require.LessOrEqual(t, len(variants), 3)
}

func TestEnhance_GeneralIntentForUnmatchedQuery(t *testing.T) {
	e := New()
	out := e.Enhance("Paris France Eiffel Tower")
	require.Equal(t, "general", out.Intent.Type)
}
