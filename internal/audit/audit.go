// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package audit implements the append-only audit log at
// logs/events.json: each successful query, ingest, upload, delete and
// clear request the HTTP surface handles is recorded as one JSON line,
// read back for the /health/detailed admin view. Failed requests and
// conversation turns are not recorded.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/northbound/hive-rag/internal/herr"
)

// Action is the kind of operation being audited.
type Action string

const (
	ActionQuery  Action = "QUERY"
	ActionIngest Action = "INGEST"
	ActionDelete Action = "DELETE"
)

// Entry is one audit log line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	ClientIP  string    `json:"client_ip"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
}

// Log is the append-only audit log store.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open opens (creating if necessary) the audit log file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to open audit log", err)
	}
	f.Close()
	return &Log{path: path}, nil
}

// Record appends one audit entry as a single JSON line. Failures here
// are non-fatal to the caller's actual operation — the HTTP surface
// logs and continues.
func (l *Log) Record(ctx context.Context, clientIP string, action Action, details string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to open audit log for append", err)
	}
	defer f.Close()

	entry := Entry{Timestamp: time.Now().UTC(), ClientIP: clientIP, Action: action, Details: details}
	data, err := json.Marshal(entry)
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to encode audit entry", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to append audit entry", err)
	}
	return nil
}

// Recent returns the last limit entries, most recent first, optionally
// filtered to one action type. 0 means unbounded.
func (l *Log) Recent(ctx context.Context, limit int, actionFilter Action) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to open audit log", err)
	}
	defer f.Close()

	var all []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // skip a corrupt line rather than fail the whole read
		}
		if actionFilter != "" && e.Action != actionFilter {
			continue
		}
		all = append(all, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to scan audit log", err)
	}

	// Reverse to most-recent-first, then apply limit.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
