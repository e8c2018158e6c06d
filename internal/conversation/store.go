// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package conversation

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/northbound/hive-rag/internal/herr"
)

// Store is the per-thread checkpoint store, persisted as a single JSON
// document at conversations.json per the external interface contract,
// written atomically on every mutation. Per-thread locks guard state
// mutation; no cross-thread locking is needed since threads never read
// each other's state.
type Store struct {
	mu       sync.RWMutex
	path     string
	threads  map[string]*State
	threadMu map[string]*sync.Mutex
}

// NewStore opens (or creates) the conversation store rooted at dataDir.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		path:     filepath.Join(dataDir, "conversations.json"),
		threads:  make(map[string]*State),
		threadMu: make(map[string]*sync.Mutex),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to read conversation store", err)
	}

	var states []*State
	if err := json.Unmarshal(data, &states); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "corrupt conversation store file", err)
	}
	for _, st := range states {
		s.threads[st.ThreadID] = st
	}
	return nil
}

func (s *Store) persistLocked() error {
	states := make([]*State, 0, len(s.threads))
	for _, st := range s.threads {
		states = append(states, st)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(states); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to encode conversation store", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to write conversation store", err)
	}
	return os.Rename(tmp, s.path)
}

// lockThread returns the per-thread mutex, creating it on first use.
func (s *Store) lockThread(threadID string) func() {
	s.mu.Lock()
	mu, ok := s.threadMu[threadID]
	if !ok {
		mu = &sync.Mutex{}
		s.threadMu[threadID] = mu
	}
	s.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// getOrCreate loads existing state for threadID, or creates a fresh one.
func (s *Store) getOrCreate(threadID string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.threads[threadID]; ok {
		return st, true
	}
	st := newState(threadID)
	s.threads[threadID] = st
	return st, false
}

// get returns the state for threadID without creating it.
func (s *Store) get(threadID string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.threads[threadID]
	return st, ok
}

// save persists the current in-memory state of every thread.
func (s *Store) save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked()
}
