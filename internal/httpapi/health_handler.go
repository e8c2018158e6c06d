// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"context"
	"net/http"
)

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}

	if a.deps.Heartbeat != nil {
		body["heartbeat"] = a.deps.Heartbeat.Status()
	}

	if a.deps.Audit != nil {
		entries, err := a.deps.Audit.Recent(r.Context(), 20, "")
		if err == nil {
			body["recent_activity"] = entries
		}
	}

	if a.deps.Errors != nil {
		body["error_stats"] = a.deps.Errors.Snapshot()
	}

	writeJSON(w, http.StatusOK, body)
}

func (a *api) handleHeartbeatStatus(w http.ResponseWriter, r *http.Request) {
	if a.deps.Heartbeat == nil {
		writeError(w, http.StatusServiceUnavailable, "heartbeat monitor is not configured")
		return
	}
	writeJSON(w, http.StatusOK, a.deps.Heartbeat.Status())
}

func (a *api) handleHeartbeatStart(w http.ResponseWriter, r *http.Request) {
	if a.deps.Heartbeat == nil {
		writeError(w, http.StatusServiceUnavailable, "heartbeat monitor is not configured")
		return
	}
	a.deps.Heartbeat.Start(context.Background())
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (a *api) handleHeartbeatStop(w http.ResponseWriter, r *http.Request) {
	if a.deps.Heartbeat == nil {
		writeError(w, http.StatusServiceUnavailable, "heartbeat monitor is not configured")
		return
	}
	a.deps.Heartbeat.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleHeartbeatLogs surfaces one component's bounded history; the
// component is named by the "component" query parameter.
func (a *api) handleHeartbeatLogs(w http.ResponseWriter, r *http.Request) {
	if a.deps.Heartbeat == nil {
		writeError(w, http.StatusServiceUnavailable, "heartbeat monitor is not configured")
		return
	}
	component := r.URL.Query().Get("component")
	if component == "" {
		writeError(w, http.StatusBadRequest, "component query parameter is required")
		return
	}
	entries := a.deps.Heartbeat.History(component, 24)
	writeJSON(w, http.StatusOK, map[string]any{"component": component, "entries": entries})
}
