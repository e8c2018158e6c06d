// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/audit"
	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/config"
	"github.com/northbound/hive-rag/internal/conversation"
	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/ingestion"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/processor"
	"github.com/northbound/hive-rag/internal/query"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func newTestRouter(t *testing.T) (http.Handler, Deps) {
	t.Helper()
	dir := t.TempDir()

	store := vectorstore.NewLocalStore(384, dir)
	meta, err := metadatastore.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	embedder := embeddings.NewMockEmbedder(384)
	ch := chunker.New(chunker.Config{Method: chunker.MethodSize, ChunkSize: 500, ChunkOverlap: 50}, embedder)
	registry := processor.NewRegistry()
	ingestEngine := ingestion.New(store, meta, registry, ch, embedder)

	llmClient := llm.NewMockClient()
	queryEngine := query.New(store, embedder, llmClient, nil, nil, query.Config{SimilarityThreshold: -1})

	convStore, err := conversation.NewStore(dir)
	require.NoError(t, err)
	convEngine := conversation.New(convStore, queryEngine)

	auditLog, err := audit.Open(dir + "/events.json")
	require.NoError(t, err)

	cfg := &config.Config{
		DataRoot: dir,
		Deadlines: config.DeadlineConfig{
			Query:      5 * time.Second,
			TextIngest: 5 * time.Second,
			FileIngest: 5 * time.Second,
		},
		Retrieval: config.RetrievalConfig{MaxFileSizeMB: 10},
	}

	deps := Deps{
		Config:       cfg,
		Ingestion:    ingestEngine,
		Query:        queryEngine,
		Conversation: convEngine,
		Meta:         meta,
		Vectors:      store,
		Audit:        auditLog,
	}
	return NewRouter(deps), deps
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_ReturnsOK(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIngestThenQuery_ReturnsGroundedAnswer(t *testing.T) {
	h, _ := newTestRouter(t)

	ingestRec := doJSON(t, h, http.MethodPost, "/ingest", ingestTextRequest{
		Text:     "Paris is the capital of France.",
		Metadata: map[string]any{"doc_path": "/geo/paris"},
	})
	require.Equal(t, http.StatusOK, ingestRec.Code)

	queryRec := doJSON(t, h, http.MethodPost, "/query", queryRequest{Query: "Paris is the capital of France.", TopK: 5})
	require.Equal(t, http.StatusOK, queryRec.Code)

	var resp query.Response
	require.NoError(t, json.Unmarshal(queryRec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Sources)
}

func TestQuery_MissingQueryIsBadRequest(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doJSON(t, h, http.MethodPost, "/query", queryRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDocument_NonExistentSucceedsWithZero(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doJSON(t, h, http.MethodDelete, "/documents/does-not-exist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(0), body["vectors_deleted"])
}

func TestClear_RemovesIngestedDocuments(t *testing.T) {
	h, _ := newTestRouter(t)
	doJSON(t, h, http.MethodPost, "/ingest", ingestTextRequest{Text: "some content", Metadata: map[string]any{"doc_path": "/a"}})

	rec := doJSON(t, h, http.MethodPost, "/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	listRec := doJSON(t, h, http.MethodGet, "/documents", nil)
	var body map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &body))
	require.Equal(t, float64(0), body["count"])
}

func TestConversationFlow_StartMessageEnd(t *testing.T) {
	h, _ := newTestRouter(t)

	startRec := doJSON(t, h, http.MethodPost, "/api/conversation/start", conversationStartRequest{})
	require.Equal(t, http.StatusOK, startRec.Code)
	var start conversation.TurnResult
	require.NoError(t, json.Unmarshal(startRec.Body.Bytes(), &start))

	// thread_id isn't in TurnResult; send to a fixed thread_id, which
	// SendMessage creates on first use, for a deterministic history lookup.
	threadID := "test-thread"
	msgRec := doJSON(t, h, http.MethodPost, "/api/conversation/message", conversationMessageRequest{
		ThreadID: threadID,
		Message:  "hello",
	})
	require.Equal(t, http.StatusOK, msgRec.Code)

	histRec := doJSON(t, h, http.MethodGet, "/api/conversation/history/"+threadID, nil)
	require.Equal(t, http.StatusOK, histRec.Code)

	endRec := doJSON(t, h, http.MethodPost, "/api/conversation/end/"+threadID, nil)
	require.Equal(t, http.StatusOK, endRec.Code)
}

func TestFolderMonitorRoutes_ServiceUnavailableWhenUnconfigured(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/folder-monitor/status", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHeartbeatRoutes_ServiceUnavailableWhenUnconfigured(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/heartbeat/status", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
