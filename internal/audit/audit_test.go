// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	return l
}

func TestRecord_AndRecent(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "127.0.0.1", ActionQuery, "what is the policy?"))
	require.NoError(t, l.Record(ctx, "127.0.0.1", ActionIngest, "doc.pdf"))

	entries, err := l.Recent(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ActionIngest, entries[0].Action) // most recent first
}

func TestRecent_FiltersByAction(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "10.0.0.1", ActionQuery, "q1"))
	require.NoError(t, l.Record(ctx, "10.0.0.1", ActionIngest, "i1"))

	entries, err := l.Recent(ctx, 10, ActionQuery)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ActionQuery, entries[0].Action)
}

func TestRecent_RespectsLimit(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(ctx, "10.0.0.1", ActionQuery, "q"))
	}

	entries, err := l.Recent(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
