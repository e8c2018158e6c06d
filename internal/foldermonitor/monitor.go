// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package foldermonitor implements component C13: watched-folder
// ingestion. A periodic ticker scan is the primary detection mechanism,
// honoring a configured poll interval; fsnotify layers a fast path on
// top so changes surface well before the next tick on platforms that
// support it.
package foldermonitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/ingestion"
	"github.com/northbound/hive-rag/internal/logger"
)

// fileRecord tracks what the monitor last saw for one path, to classify
// new/modified/deleted on the next scan.
type fileRecord struct {
	ModTime time.Time
	Size    int64
}

// FolderStatus reports one watched folder's state.
type FolderStatus struct {
	Path          string    `json:"path"`
	Active        bool      `json:"active"`
	FilesTracked  int       `json:"files_tracked"`
	LastScan      time.Time `json:"last_scan"`
	LastError     string    `json:"last_error,omitempty"`
}

// Status is get_status's return shape.
type Status struct {
	Running bool           `json:"running"`
	Folders []FolderStatus `json:"folders"`
}

// folder is one monitored directory's live state.
type folder struct {
	path     string
	patterns []string
	files    map[string]fileRecord
	watcher  *fsnotify.Watcher
	lastScan time.Time
	lastErr  string
}

// Monitor is component C13.
type Monitor struct {
	engine       *ingestion.Engine
	pollInterval time.Duration

	mu      sync.Mutex
	folders map[string]*folder
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs the folder monitor. pollInterval is the primary scan
// cadence; zero defaults to 30s.
func New(engine *ingestion.Engine, pollInterval time.Duration) *Monitor {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Monitor{
		engine:       engine,
		pollInterval: pollInterval,
		folders:      make(map[string]*folder),
	}
}

// AddFolder registers a directory for monitoring. Idempotent: adding an
// already-tracked path is a no-op.
func (m *Monitor) AddFolder(path string, patterns []string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return herr.Wrap(herr.KindConfiguration, herr.SeverityLow, "failed to resolve folder path", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[abs]; ok {
		return nil
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return herr.Wrap(herr.KindConfiguration, herr.SeverityMedium, "failed to create watch directory", err)
	}

	f := &folder{path: abs, patterns: patterns, files: make(map[string]fileRecord)}
	m.folders[abs] = f

	if m.running {
		m.startWatching(f)
	}
	return nil
}

// RemoveFolder stops monitoring path and forgets its tracking state.
func (m *Monitor) RemoveFolder(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return herr.Wrap(herr.KindConfiguration, herr.SeverityLow, "failed to resolve folder path", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[abs]
	if !ok {
		return nil
	}
	if f.watcher != nil {
		f.watcher.Close()
	}
	delete(m.folders, abs)
	return nil
}

// ListFolders returns the set of tracked folder paths.
func (m *Monitor) ListFolders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.folders))
	for p := range m.folders {
		out = append(out, p)
	}
	return out
}

// ListFiles returns the paths currently tracked under folder path.
func (m *Monitor) ListFiles(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, herr.Wrap(herr.KindConfiguration, herr.SeverityLow, "failed to resolve folder path", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[abs]
	if !ok {
		return nil, herr.New(herr.KindConfiguration, herr.SeverityLow, "folder is not tracked").WithDetail("path", abs)
	}
	out := make([]string, 0, len(f.files))
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}

// Start begins the periodic scan loop and, for each already-tracked
// folder, an fsnotify fast path. Idempotent.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, f := range m.folders {
		m.startWatching(f)
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go m.scanLoop(runCtx)
	return nil
}

// Stop halts the scan loop and every fsnotify watcher, and joins them.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	for _, f := range m.folders {
		if f.watcher != nil {
			f.watcher.Close()
			f.watcher = nil
		}
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// ForceScan runs one scan pass over every tracked folder immediately,
// outside the regular ticker cadence.
func (m *Monitor) ForceScan(ctx context.Context) {
	m.mu.Lock()
	folders := make([]*folder, 0, len(m.folders))
	for _, f := range m.folders {
		folders = append(folders, f)
	}
	m.mu.Unlock()

	for _, f := range folders {
		m.scanFolder(ctx, f)
	}
}

// GetStatus reports whether the monitor is running and each folder's
// last-scan outcome.
func (m *Monitor) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	folders := make([]FolderStatus, 0, len(m.folders))
	for _, f := range m.folders {
		folders = append(folders, FolderStatus{
			Path:         f.path,
			Active:       f.watcher != nil,
			FilesTracked: len(f.files),
			LastScan:     f.lastScan,
			LastError:    f.lastErr,
		})
	}
	return Status{Running: m.running, Folders: folders}
}

func (m *Monitor) scanLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ForceScan(ctx)
		}
	}
}

// startWatching attaches an fsnotify watcher to f as a fast path; any
// failure to watch is non-fatal since the ticker scan still covers it.
func (m *Monitor) startWatching(f *folder) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("fsnotify unavailable for %s, relying on periodic scan: %v", f.path, err)
		return
	}
	if err := watcher.Add(f.path); err != nil {
		logger.Warnf("failed to watch %s, relying on periodic scan: %v", f.path, err)
		watcher.Close()
		return
	}
	f.watcher = watcher

	m.wg.Add(1)
	go m.watchEvents(f)
}

func (m *Monitor) watchEvents(f *folder) {
	defer m.wg.Done()
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.scanFolder(context.Background(), f)
			}
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// scanFolder walks f.path, classifies each file as new/modified/deleted
// against its previous fileRecord, and ingests or removes accordingly.
// A single file's ingest failure is logged and does not stop the scan.
func (m *Monitor) scanFolder(ctx context.Context, f *folder) {
	seen := make(map[string]bool)

	err := filepath.Walk(f.path, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if len(f.patterns) > 0 && !matchesAny(path, f.patterns) {
			return nil
		}
		seen[path] = true

		prev, existed := f.files[path]
		current := fileRecord{ModTime: info.ModTime(), Size: info.Size()}
		if existed && prev.ModTime.Equal(current.ModTime) && prev.Size == current.Size {
			return nil // unchanged
		}

		if _, err := m.engine.IngestFile(ctx, path, map[string]any{}); err != nil {
			logger.Warnf("folder monitor failed to ingest %s: %v", path, err)
			return nil
		}
		f.files[path] = current
		return nil
	})

	m.mu.Lock()
	f.lastScan = time.Now().UTC()
	if err != nil {
		f.lastErr = err.Error()
	} else {
		f.lastErr = ""
	}
	m.mu.Unlock()

	for path := range f.files {
		if seen[path] {
			continue
		}
		// IngestFile derives identity from filename when no doc_path is
		// supplied; deletion must use the same identity.
		identity := filepath.Base(path)
		if _, err := m.engine.DeleteFile(ctx, identity); err != nil {
			logger.Warnf("folder monitor failed to remove deleted file %s: %v", path, err)
		}
		delete(f.files, path)
	}
}

func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
