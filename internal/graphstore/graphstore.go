// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package graphstore implements the document relationship graph: a
// SQLite-backed set of typed edges between document identities. No
// other component queries it: internal/conversation builds related_topics
// from source metadata alone.
package graphstore

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/northbound/hive-rag/internal/herr"
)

// Edge is a directed, typed relationship between two document identities.
type Edge struct {
	SourceDocID      string `json:"source_doc_id"`
	TargetDocID      string `json:"target_doc_id"`
	RelationshipType string `json:"relationship_type"` // e.g. "references", "contradicts", "supersedes"
	Description      string `json:"description"`
}

// Store is the document relationship graph.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the graph database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to open graph database", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS graph_edges (
		source_doc_id TEXT NOT NULL,
		target_doc_id TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source_doc_id, target_doc_id, relationship_type)
	);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges(source_doc_id);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges(target_doc_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to initialize graph schema", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// AddEdge upserts a relationship between two document identities.
func (s *Store) AddEdge(ctx context.Context, e Edge) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO graph_edges (source_doc_id, target_doc_id, relationship_type, description) VALUES (?, ?, ?, ?)`,
		e.SourceDocID, e.TargetDocID, e.RelationshipType, e.Description,
	)
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to add graph edge", err)
	}
	return nil
}

// EdgesFor returns every edge touching docID, as either source or target.
func (s *Store) EdgesFor(ctx context.Context, docID string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_doc_id, target_doc_id, relationship_type, description FROM graph_edges
		 WHERE source_doc_id = ? OR target_doc_id = ? ORDER BY created_at DESC`,
		docID, docID,
	)
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to query graph edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// RelatedDocIDs returns the distinct set of documents connected to docID,
// capped at limit (0 = unbounded).
func (s *Store) RelatedDocIDs(ctx context.Context, docID string, limit int) ([]string, error) {
	edges, err := s.EdgesFor(ctx, docID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{docID: true}
	var related []string
	for _, e := range edges {
		other := e.TargetDocID
		if other == docID {
			other = e.SourceDocID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		related = append(related, other)
		if limit > 0 && len(related) >= limit {
			break
		}
	}
	return related, nil
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.SourceDocID, &e.TargetDocID, &e.RelationshipType, &e.Description); err != nil {
			return nil, herr.Wrap(herr.KindStorage, herr.SeverityLow, "failed to scan graph edge", err)
		}
		edges = append(edges, e)
	}
	return edges, nil
}
