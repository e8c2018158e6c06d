// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

func (a *api) handleFolderStatus(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	writeJSON(w, http.StatusOK, a.deps.FolderMon.GetStatus())
}

type folderRequest struct {
	Path     string   `json:"path"`
	Patterns []string `json:"patterns"`
}

func (a *api) handleFolderAdd(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := a.deps.FolderMon.AddFolder(req.Path, req.Patterns); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (a *api) handleFolderRemove(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if err := a.deps.FolderMon.RemoveFolder(req.Path); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *api) handleFolderList(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": a.deps.FolderMon.ListFolders()})
}

func (a *api) handleFolderStart(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	if err := a.deps.FolderMon.Start(context.Background()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (a *api) handleFolderStop(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	a.deps.FolderMon.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (a *api) handleFolderScan(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	a.deps.FolderMon.ForceScan(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "scanned"})
}

func (a *api) handleFolderFiles(w http.ResponseWriter, r *http.Request) {
	if a.deps.FolderMon == nil {
		writeError(w, http.StatusServiceUnavailable, "folder monitor is not configured")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	files, err := a.deps.FolderMon.ListFiles(path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "files": files})
}
