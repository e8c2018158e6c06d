// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type conversationStartRequest struct {
	ThreadID string `json:"thread_id"`
}

func (a *api) handleConversationStart(w http.ResponseWriter, r *http.Request) {
	if a.deps.Conversation == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation engine is not configured")
		return
	}
	var req conversationStartRequest
	json.NewDecoder(r.Body).Decode(&req) // empty body starts a fresh thread

	result, err := a.deps.Conversation.StartConversation(r.Context(), req.ThreadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type conversationMessageRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

func (a *api) handleConversationMessage(w http.ResponseWriter, r *http.Request) {
	if a.deps.Conversation == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation engine is not configured")
		return
	}
	var req conversationMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.ThreadID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "thread_id and message are required")
		return
	}

	ctx, cancel := withDeadline(r, a.deps.Config.Deadlines.Query)
	defer cancel()

	result, err := a.deps.Conversation.SendMessage(ctx, req.ThreadID, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *api) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	if a.deps.Conversation == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation engine is not configured")
		return
	}
	threadID := chi.URLParam(r, "thread_id")
	maxMessages := 0
	if raw := r.URL.Query().Get("max_messages"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			maxMessages = n
		}
	}

	messages, turnCount, phase, ok := a.deps.Conversation.GetHistory(threadID, maxMessages)
	if !ok {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id":     threadID,
		"messages":      messages,
		"turn_count":    turnCount,
		"current_phase": phase,
	})
}

func (a *api) handleConversationEnd(w http.ResponseWriter, r *http.Request) {
	if a.deps.Conversation == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation engine is not configured")
		return
	}
	threadID := chi.URLParam(r, "thread_id")
	summary, err := a.deps.Conversation.EndConversation(r.Context(), threadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
