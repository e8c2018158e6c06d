// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package metadatastore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPut_CreatesRetrievableRecord(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Put("/docs/a.txt", 1024, ".txt", 3, []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, rec.FileID)

	got, ok := s.Get("/docs/a.txt")
	require.True(t, ok)
	require.Equal(t, rec.FileID, got.FileID)
}

func TestPut_SupersedesPriorRecordForSamePath(t *testing.T) {
	s := newTestStore(t)
	first, err := s.Put("/docs/a.txt", 100, ".txt", 1, []int64{1}, nil)
	require.NoError(t, err)

	second, err := s.Put("/docs/a.txt", 200, ".txt", 2, []int64{2, 3}, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.FileID, second.FileID)

	got, ok := s.Get("/docs/a.txt")
	require.True(t, ok)
	require.Equal(t, second.FileID, got.FileID)
}

func TestDelete_RemovesPathAssociationButKeepsRecord(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Put("/docs/a.txt", 100, ".txt", 1, []int64{1}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete("/docs/a.txt"))
	_, ok := s.Get("/docs/a.txt")
	require.False(t, ok)
}

func TestList_OnlyReturnsCurrentRecords(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Put("/docs/a.txt", 100, ".txt", 1, []int64{1}, nil)
	require.NoError(t, err)
	_, err = s.Put("/docs/b.txt", 200, ".txt", 2, []int64{2}, nil)
	require.NoError(t, err)
	_, err = s.Put("/docs/a.txt", 150, ".txt", 1, []int64{3}, nil) // supersede a.txt

	require.NoError(t, err)
	require.Len(t, s.List(), 2)
}

func TestClear_RemovesAllRecords(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Put("/docs/a.txt", 100, ".txt", 1, []int64{1}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	require.Empty(t, s.List())
}

func TestNew_ReloadsPersistedRecords(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.Put("/docs/a.txt", 100, ".txt", 1, []int64{1}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("/docs/a.txt")
	require.True(t, ok)
	require.Equal(t, int64(100), got.FileSize)
}
