// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package metadatastore owns the file ingestion record: the persistent
// mapping from file identity to chunk/vector bookkeeping that the
// ingestion engine writes and the folder monitor reads for change
// detection. It is kept separate from the vector store, which exclusively
// owns the vector_id -> metadata mapping.
package metadatastore

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"

	"github.com/northbound/hive-rag/internal/herr"
)

// FileRecord is one ingested file's bookkeeping entry.
type FileRecord struct {
	FileID      string         `json:"file_id"`
	FilePath    string         `json:"file_path"`
	FileSize    int64          `json:"file_size"`
	FileType    string         `json:"file_type"`
	IngestedAt  time.Time      `json:"ingested_at"`
	ChunkCount  int            `json:"chunk_count"`
	VectorIDs   []int64        `json:"vector_ids"`
	UserMeta    map[string]any `json:"user_metadata,omitempty"`
	Superseded  bool           `json:"superseded"`
}

// Store is a mutex-guarded, file-ingestion-record keyed store. The
// authoritative snapshot is the single JSON document named by the
// external interface contract (metadata/files.json), written atomically
// on every mutation; a SQLite table alongside it (files.db) mirrors the
// same records for ad hoc queries (e.g. by file_type) that a flat JSON
// array doesn't serve well.
type Store struct {
	mu      sync.RWMutex
	path    string
	db      *sql.DB
	records map[string]*FileRecord // keyed by file_id
	byPath  map[string]string      // file_path -> current (non-superseded) file_id
}

// New opens (or creates) the metadata store rooted at dataDir.
func New(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "metadata")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to create metadata directory", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "files.db"))
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to open metadata mirror database", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS files (
		file_id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		file_size INTEGER,
		file_type TEXT,
		ingested_at DATETIME,
		chunk_count INTEGER,
		superseded INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_files_path ON files(file_path);
	CREATE INDEX IF NOT EXISTS idx_files_type ON files(file_type);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to initialize metadata mirror schema", err)
	}

	s := &Store{
		path:    filepath.Join(dir, "files.json"),
		db:      db,
		records: make(map[string]*FileRecord),
		byPath:  make(map[string]string),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the mirror database's connection.
func (s *Store) Close() error { return s.db.Close() }

// mirrorLocked rewrites the SQLite mirror from the in-memory records.
// Mirror failures are dropped silently (neither logged nor returned): the
// JSON snapshot remains
// the source of truth and the mirror is queryable convenience only.
func (s *Store) mirrorLocked() {
	tx, err := s.db.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM files"); err != nil {
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO files (file_id, file_path, file_size, file_type, ingested_at, chunk_count, superseded) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return
	}
	defer stmt.Close()

	for _, r := range s.records {
		superseded := 0
		if r.Superseded {
			superseded = 1
		}
		if _, err := stmt.Exec(r.FileID, r.FilePath, r.FileSize, r.FileType, r.IngestedAt, r.ChunkCount, superseded); err != nil {
			return
		}
	}
	tx.Commit()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to read metadata store", err)
	}

	var records []*FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "corrupt metadata store file", err)
	}

	for _, r := range records {
		s.records[r.FileID] = r
		if !r.Superseded {
			s.byPath[r.FilePath] = r.FileID
		}
	}
	return nil
}

func (s *Store) persistLocked() error {
	records := make([]*FileRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Put creates a new file ingestion record, marking any prior record for
// the same file path as superseded (never deleted).
func (s *Store) Put(filePath string, fileSize int64, fileType string, chunkCount int, vectorIDs []int64, userMeta map[string]any) (*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if priorID, ok := s.byPath[filePath]; ok {
		if prior, ok := s.records[priorID]; ok {
			prior.Superseded = true
		}
	}

	rec := &FileRecord{
		FileID:     uuid.NewString(),
		FilePath:   filePath,
		FileSize:   fileSize,
		FileType:   fileType,
		IngestedAt: time.Now().UTC(),
		ChunkCount: chunkCount,
		VectorIDs:  vectorIDs,
		UserMeta:   userMeta,
	}
	s.records[rec.FileID] = rec
	s.byPath[filePath] = rec.FileID
	s.mirrorLocked()

	if err := s.persistLocked(); err != nil {
		return rec, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to persist metadata store (record kept in memory)", err)
	}
	return rec, nil
}

// Get returns the current (non-superseded) record for a file path.
func (s *Store) Get(filePath string) (*FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPath[filePath]
	if !ok {
		return nil, false
	}
	return s.records[id], true
}

// Delete removes the current record association for filePath (the record
// itself is kept, marked superseded, for audit purposes).
func (s *Store) Delete(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPath[filePath]
	if !ok {
		return nil
	}
	if rec, ok := s.records[id]; ok {
		rec.Superseded = true
	}
	delete(s.byPath, filePath)
	s.mirrorLocked()
	return s.persistLocked()
}

// List returns every current (non-superseded) file record.
func (s *Store) List() []*FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*FileRecord, 0, len(s.byPath))
	for _, id := range s.byPath {
		out = append(out, s.records[id])
	}
	return out
}

// Clear removes every record, used by the admin /clear endpoint.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*FileRecord)
	s.byPath = make(map[string]string)
	s.mirrorLocked()
	return s.persistLocked()
}
