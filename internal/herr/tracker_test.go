// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package herr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_RecordCountsByKind(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(New(KindStorage, SeverityHigh, "disk full"))
	tr.Record(New(KindStorage, SeverityLow, "retry exhausted"))
	tr.Record(New(KindLLM, SeverityMedium, "timeout"))

	snap := tr.Snapshot()
	require.Equal(t, 3, snap.Total)
	require.Equal(t, 2, snap.CountsByKind[KindStorage])
	require.Equal(t, 1, snap.CountsByKind[KindLLM])
	require.Len(t, snap.Recent, 3)
}

func TestTracker_RecordNonTaxonomyErrorStillCounted(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(errors.New("plain error"))

	snap := tr.Snapshot()
	require.Equal(t, 1, snap.Total)
	require.Equal(t, 1, snap.CountsByKind[Kind("")])
}

func TestTracker_RingBufferTrimsToCapacity(t *testing.T) {
	tr := NewTracker(2)
	tr.Record(New(KindAPI, SeverityLow, "one"))
	tr.Record(New(KindAPI, SeverityLow, "two"))
	tr.Record(New(KindAPI, SeverityLow, "three"))

	snap := tr.Snapshot()
	require.Equal(t, 3, snap.Total)
	require.Len(t, snap.Recent, 2)
	require.Equal(t, "api: two", snap.Recent[0].Message)
	require.Equal(t, "api: three", snap.Recent[1].Message)
}

func TestTracker_NilErrorIsNoop(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(nil)
	require.Equal(t, 0, tr.Snapshot().Total)
}
