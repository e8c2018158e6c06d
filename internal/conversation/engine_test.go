// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/query"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return New(store, nil)
}

// newTestEngineWithEmptyQueryEngine wires a real query.Engine over an
// empty vector store, guaranteeing ProcessQuery reports
// RequiresClarification on every search turn.
func newTestEngineWithEmptyQueryEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	vs := vectorstore.NewLocalStore(8, t.TempDir())
	qe := query.New(vs, embeddings.NewMockEmbedder(8), llm.NewMockClient(), nil, nil, query.Config{SimilarityThreshold: 0.99, RerankEnabled: false})
	return New(store, qe)
}

func TestStartConversation_CreatesFreshThreadWithGreeting(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.StartConversation(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, result.Response)
	require.Equal(t, PhaseUnderstanding, result.CurrentPhase)
	require.Equal(t, 1, result.TurnCount)
}

func TestSendMessage_GreetingIntentRespondsDirectly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-1")
	require.NoError(t, err)

	result, err := e.SendMessage(ctx, "thread-1", "hello there")
	require.NoError(t, err)
	require.Equal(t, PhaseResponding, result.CurrentPhase)
	require.Greater(t, result.ConfidenceScore, 0.9)
}

func TestSendMessage_QuestionIntentRunsSearchNode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-2")
	require.NoError(t, err)

	result, err := e.SendMessage(ctx, "thread-2", "what is the onboarding policy?")
	require.NoError(t, err)
	require.Equal(t, PhaseResponding, result.CurrentPhase)
	require.Empty(t, result.Sources) // nil queryEngine -> no-knowledge fallback
}

func TestSendMessage_GoodbyeEndsConversation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-3")
	require.NoError(t, err)

	result, err := e.SendMessage(ctx, "thread-3", "thanks, bye")
	require.NoError(t, err)
	require.Equal(t, PhaseEnding, result.CurrentPhase)

	st, ok := e.store.get("thread-3")
	require.True(t, ok)
	require.True(t, st.Ended)
}

func TestTurnCount_MatchesMessageLength(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-4")
	require.NoError(t, err)
	_, err = e.SendMessage(ctx, "thread-4", "what is this system?")
	require.NoError(t, err)

	st, ok := e.store.get("thread-4")
	require.True(t, ok)
	require.Equal(t, len(st.Messages), st.TurnCount)
}

func TestThreadIsolation_SeparateThreadsDoNotShareState(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-a")
	require.NoError(t, err)
	_, err = e.StartConversation(ctx, "thread-b")
	require.NoError(t, err)

	_, err = e.SendMessage(ctx, "thread-a", "what is alpha?")
	require.NoError(t, err)

	stA, _ := e.store.get("thread-a")
	stB, _ := e.store.get("thread-b")
	require.NotEqual(t, stA.TurnCount, stB.TurnCount)
	require.Empty(t, stB.OriginalQuery)
}

func TestSendMessage_NoGroundedResultsRoutesToClarify(t *testing.T) {
	e := newTestEngineWithEmptyQueryEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-clarify")
	require.NoError(t, err)

	result, err := e.SendMessage(ctx, "thread-clarify", "what is the onboarding policy?")
	require.NoError(t, err)
	require.Equal(t, PhaseClarifying, result.CurrentPhase)
	require.NotEmpty(t, result.Response)

	st, ok := e.store.get("thread-clarify")
	require.True(t, ok)
	require.Equal(t, PhaseClarifying, st.CurrentPhase)

	// The next turn re-enters understand: dispatch resets CurrentPhase to
	// PhaseUnderstanding before routing, regardless of the prior phase.
	result2, err := e.SendMessage(ctx, "thread-clarify", "thanks, bye")
	require.NoError(t, err)
	require.Equal(t, PhaseEnding, result2.CurrentPhase)
}

func TestEndConversation_ProducesSummary(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartConversation(ctx, "thread-5")
	require.NoError(t, err)
	_, err = e.SendMessage(ctx, "thread-5", "what is the policy?")
	require.NoError(t, err)

	summary, err := e.EndConversation(ctx, "thread-5")
	require.NoError(t, err)
	require.Equal(t, 1, summary.UserMessageCount)
	require.Greater(t, summary.TurnCount, 0)
}
