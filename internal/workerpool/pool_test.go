// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package workerpool

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func TestPool_RoutesJobToRegisteredHandler(t *testing.T) {
	q := NewMemoryQueue(10)
	p := New(q, 2)

	var mu sync.Mutex
	var seen []string
	p.RegisterHandler("greet", func(ctx context.Context, job Job) error {
		var name string
		require.NoError(t, json.Unmarshal(job.Payload, &name))
		mu.Lock()
		seen = append(seen, name)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	defer func() { cancel(); p.Stop() }()

	require.NoError(t, p.Enqueue(context.Background(), "greet", "alice"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1 && seen[0] == "alice"
	}, time.Second, 10*time.Millisecond)
}

func TestPool_UnknownJobTypeIsDroppedNotFatal(t *testing.T) {
	q := NewMemoryQueue(10)
	p := New(q, 1)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	defer func() { cancel(); p.Stop() }()

	require.NoError(t, p.Enqueue(context.Background(), "nonexistent", map[string]string{}))
	require.NoError(t, p.Enqueue(context.Background(), "nonexistent2", map[string]string{}))
}

func TestMemoryQueue_EnqueueDequeueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Type: "x", Payload: json.RawMessage(`{}`)}))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "x", job.Type)
}

func TestTaggingHandler_WritesTagsFromMockLLM(t *testing.T) {
	store := vectorstore.NewLocalStore(4, t.TempDir())
	ctx := context.Background()
	ids, err := store.AddVectors(ctx, [][]float32{{0.1, 0.2, 0.3, 0.4}}, []vectorstore.Metadata{{"text": "an urgent legal contract"}})
	require.NoError(t, err)

	handler := NewTaggingHandler(llm.NewMockClient(), store)
	payload, err := json.Marshal(TaggingPayload{VectorID: ids[0], Text: "an urgent legal contract"})
	require.NoError(t, err)

	require.NoError(t, handler(ctx, Job{Type: JobTypeTagging, Payload: payload}))

	hits, err := store.SearchWithMetadata(ctx, []float32{0.1, 0.2, 0.3, 0.4}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Contains(t, hits[0].Metadata, "tags")
}

func TestFallbackTags_MatchesKeywordFamilies(t *testing.T) {
	tags := fallbackTags("This urgent legal contract requires immediate review.")
	require.Contains(t, tags, "urgent")
	require.Contains(t, tags, "legal")
}
