// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package herr

import (
	"sync"
	"time"
)

// Occurrence is one recorded error, trimmed to what an operator needs to
// see without replaying the original request.
type Occurrence struct {
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker accumulates error counts by kind and keeps a bounded ring of
// the most recent occurrences, for the "what's been failing" view behind
// /health/detailed. It never affects control flow: Record is a sink, not
// a gate.
type Tracker struct {
	mu      sync.Mutex
	counts  map[Kind]int
	recent  []Occurrence
	maxRing int
}

// NewTracker builds a Tracker that keeps the last ringSize occurrences.
func NewTracker(ringSize int) *Tracker {
	if ringSize <= 0 {
		ringSize = 50
	}
	return &Tracker{counts: map[Kind]int{}, maxRing: ringSize}
}

// Record files err's kind/severity/message if it unwraps to an *Error;
// anything else is recorded under an empty Kind so the total count stays
// accurate even for errors this package doesn't own.
func (t *Tracker) Record(err error) {
	if err == nil {
		return
	}
	occ := Occurrence{Timestamp: time.Now().UTC(), Message: err.Error()}
	if e, ok := As(err); ok {
		occ.Kind = e.Kind
		occ.Severity = e.Severity
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[occ.Kind]++
	t.recent = append(t.recent, occ)
	if len(t.recent) > t.maxRing {
		t.recent = t.recent[len(t.recent)-t.maxRing:]
	}
}

// Stats is the JSON-friendly snapshot returned to callers.
type Stats struct {
	CountsByKind map[Kind]int `json:"counts_by_kind"`
	Total        int          `json:"total"`
	Recent       []Occurrence `json:"recent"`
}

// Snapshot returns a copy of the tracker's current counts and recent ring,
// safe to serialize without racing further Record calls.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[Kind]int, len(t.counts))
	total := 0
	for k, n := range t.counts {
		counts[k] = n
		total += n
	}
	recent := make([]Occurrence, len(t.recent))
	copy(recent, t.recent)

	return Stats{CountsByKind: counts, Total: total, Recent: recent}
}
