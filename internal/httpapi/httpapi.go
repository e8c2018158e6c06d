// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package httpapi implements component C16: the HTTP surface over the
// retrieval core, in a "plain handler, manual JSON in/out" idiom built
// on go-chi for path parameters and middleware.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/northbound/hive-rag/internal/audit"
	"github.com/northbound/hive-rag/internal/config"
	"github.com/northbound/hive-rag/internal/conversation"
	"github.com/northbound/hive-rag/internal/foldermonitor"
	"github.com/northbound/hive-rag/internal/graphstore"
	"github.com/northbound/hive-rag/internal/heartbeat"
	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/ingestion"
	"github.com/northbound/hive-rag/internal/logger"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/query"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

// Deps wires every collaborator the HTTP surface calls into. Fields may
// be nil for an optional component (FolderMonitor, Heartbeat, Graph);
// handlers for those routes respond 503 when their dependency is unset.
type Deps struct {
	Config       *config.Config
	Ingestion    *ingestion.Engine
	Query        *query.Engine
	Conversation *conversation.Engine
	Meta         *metadatastore.Store
	Vectors      vectorstore.Store
	FolderMon    *foldermonitor.Monitor
	Heartbeat    *heartbeat.Monitor
	Audit        *audit.Log
	Graph        *graphstore.Store
	Errors       *herr.Tracker
}

type api struct {
	deps Deps
}

// NewRouter builds the full route table as an http.Handler, ready to be
// passed to http.Server.
func NewRouter(deps Deps) http.Handler {
	a := &api{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", a.handleHealth)
	r.Get("/health/detailed", a.handleHealthDetailed)
	r.Get("/stats", a.handleStats)
	r.Get("/documents", a.handleListDocuments)
	r.Delete("/documents/{doc_path}", a.handleDeleteDocument)
	r.Get("/config", a.handleGetConfig)

	r.Post("/query", a.handleQuery)
	r.Post("/ingest", a.handleIngestText)
	r.Post("/upload", a.handleUpload)
	r.Post("/clear", a.handleClear)

	r.Get("/heartbeat/status", a.handleHeartbeatStatus)
	r.Post("/heartbeat/start", a.handleHeartbeatStart)
	r.Post("/heartbeat/stop", a.handleHeartbeatStop)
	r.Get("/heartbeat/logs", a.handleHeartbeatLogs)

	r.Get("/folder-monitor/status", a.handleFolderStatus)
	r.Post("/folder-monitor/add", a.handleFolderAdd)
	r.Post("/folder-monitor/remove", a.handleFolderRemove)
	r.Get("/folder-monitor/folders", a.handleFolderList)
	r.Post("/folder-monitor/start", a.handleFolderStart)
	r.Post("/folder-monitor/stop", a.handleFolderStop)
	r.Post("/folder-monitor/scan", a.handleFolderScan)
	r.Get("/folder-monitor/files", a.handleFolderFiles)

	r.Post("/api/conversation/start", a.handleConversationStart)
	r.Post("/api/conversation/message", a.handleConversationMessage)
	r.Get("/api/conversation/history/{thread_id}", a.handleConversationHistory)
	r.Post("/api/conversation/end/{thread_id}", a.handleConversationEnd)

	r.Get("/events", a.handleEvents)

	return r
}

// getClientIP extracts the caller's address: X-Forwarded-For, then
// X-Real-IP, then RemoteAddr.
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps an *herr.Error to its documented status code,
// falling back to 500 for anything else.
func writeDomainError(w http.ResponseWriter, err error) {
	status := herr.HTTPStatus(err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainErrorTracked is writeDomainError plus a Tracker.Record call,
// for handlers that have a.deps.Errors available.
func (a *api) writeDomainErrorTracked(w http.ResponseWriter, err error) {
	if a.deps.Errors != nil {
		a.deps.Errors.Record(err)
	}
	writeDomainError(w, err)
}

// withDeadline derives a request-scoped context bounded by d, used so a
// slow embedder or LLM call surfaces as 408 rather than hanging the
// connection indefinitely.
func withDeadline(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), d)
}

// auditRecord logs an audit entry without failing the caller's request
// on a logging error.
func (a *api) auditRecord(r *http.Request, action audit.Action, details string) {
	if a.deps.Audit == nil {
		return
	}
	if err := a.deps.Audit.Record(r.Context(), getClientIP(r), action, details); err != nil {
		logger.Warnf("audit log write failed: %v", err)
	}
}
