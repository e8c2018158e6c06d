// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package foldermonitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/ingestion"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/processor"
	"github.com/northbound/hive-rag/internal/vectorstore"
)

func newTestMonitor(t *testing.T) (*Monitor, *ingestion.Engine) {
	t.Helper()
	dir := t.TempDir()
	store := vectorstore.NewLocalStore(384, dir)
	meta, err := metadatastore.New(dir)
	require.NoError(t, err)
	embedder := embeddings.NewMockEmbedder(384)
	ch := chunker.New(chunker.Config{Method: chunker.MethodSize, ChunkSize: 500, ChunkOverlap: 50}, embedder)
	engine := ingestion.New(store, meta, processor.NewRegistry(), ch, embedder)
	return New(engine, 20*time.Millisecond), engine
}

func TestAddFolder_IsIdempotent(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()

	require.NoError(t, m.AddFolder(watchDir, nil))
	require.NoError(t, m.AddFolder(watchDir, nil))
	require.Len(t, m.ListFolders(), 1)
}

func TestForceScan_IngestsNewFile(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()
	require.NoError(t, m.AddFolder(watchDir, nil))

	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "note.txt"), []byte("hello from the watched folder"), 0644))

	m.ForceScan(context.Background())

	files, err := m.ListFiles(watchDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestForceScan_SkipsUnchangedFile(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()
	require.NoError(t, m.AddFolder(watchDir, nil))

	path := filepath.Join(watchDir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	m.ForceScan(context.Background())
	m.ForceScan(context.Background())

	status := m.GetStatus()
	require.Len(t, status.Folders, 1)
	require.Equal(t, 1, status.Folders[0].FilesTracked)
}

func TestForceScan_RemovesDeletedFile(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()
	require.NoError(t, m.AddFolder(watchDir, nil))

	path := filepath.Join(watchDir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	m.ForceScan(context.Background())

	files, err := m.ListFiles(watchDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, os.Remove(path))
	m.ForceScan(context.Background())

	files, err = m.ListFiles(watchDir)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestRemoveFolder_StopsTracking(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()
	require.NoError(t, m.AddFolder(watchDir, nil))
	require.NoError(t, m.RemoveFolder(watchDir))
	require.Empty(t, m.ListFolders())
}

func TestStartStop_IsIdempotentAndJoinsCleanly(t *testing.T) {
	m, _ := newTestMonitor(t)
	watchDir := t.TempDir()
	require.NoError(t, m.AddFolder(watchDir, nil))

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Start(ctx)) // idempotent
	m.Stop()
	m.Stop() // idempotent
}
