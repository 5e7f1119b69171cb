// Package taskstore records batch-task runs as JSON documents on disk,
// keyed by the orchestrator's dag/run/task identifiers.
package taskstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/systmms/containerkit/internal/metrics"
)

// Entry is one recorded task run.
type Entry struct {
	DagID      string         `json:"dag_id"`
	RunID      string         `json:"run_id"`
	TaskID     string         `json:"task_id"`
	Status     string         `json:"status"`
	CommitID   string         `json:"commit_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ModifiedAt time.Time      `json:"modified_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	DagID  string
	RunID  string
	Status string
}

func (f Filter) matches(e Entry) bool {
	if f.DagID != "" && f.DagID != e.DagID {
		return false
	}
	if f.RunID != "" && f.RunID != e.RunID {
		return false
	}
	if f.Status != "" && f.Status != e.Status {
		return false
	}
	return true
}

// Store is a file-backed task entry store.
type Store struct {
	baseDir string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// DefaultDir returns the default task store directory
func DefaultDir() string {
	if testDir := os.Getenv("CONTAINERKIT_TASKS_DIR"); testDir != "" {
		return testDir
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "containerkit", "tasks")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "containerkit", "tasks")
	}

	return filepath.Join(os.TempDir(), "containerkit", "tasks")
}

// HandleTask upserts the entry for (dagID, runID, taskID): an existing
// entry gets the new status and merged metadata, otherwise a fresh one
// is created, stamped with the current commit from GITHUB_SHA.
func (s *Store) HandleTask(dagID, runID, taskID, status string, metadata map[string]any) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	path := s.entryPath(dagID, runID, taskID)

	entry, err := readEntry(path)
	switch {
	case err == nil:
		entry.Status = status
		entry.ModifiedAt = now
		for k, v := range metadata {
			if entry.Metadata == nil {
				entry.Metadata = make(map[string]any)
			}
			entry.Metadata[k] = v
		}
		metrics.RecordTaskEntry("update")
	case os.IsNotExist(err):
		entry = Entry{
			DagID:      dagID,
			RunID:      runID,
			TaskID:     taskID,
			Status:     status,
			CommitID:   os.Getenv("GITHUB_SHA"),
			CreatedAt:  now,
			ModifiedAt: now,
			Metadata:   metadata,
		}
		metrics.RecordTaskEntry("create")
	default:
		return Entry{}, fmt.Errorf("failed to read task entry: %w", err)
	}

	if err := writeEntry(path, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get returns the entry for (dagID, runID, taskID).
func (s *Store) Get(dagID, runID, taskID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, err := readEntry(s.entryPath(dagID, runID, taskID))
	if os.IsNotExist(err) {
		return Entry{}, fmt.Errorf("no task entry for %s/%s/%s", dagID, runID, taskID)
	}
	return entry, err
}

// List returns entries matching the filter, newest modification first.
// A limit of 0 or less returns everything.
func (s *Store) List(filter Filter, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.baseDir); os.IsNotExist(err) {
		return []Entry{}, nil
	}

	var entries []Entry
	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil {
			return nil // Skip invalid JSON files
		}
		if filter.matches(entry) {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan task entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModifiedAt.After(entries[j].ModifiedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) entryPath(dagID, runID, taskID string) string {
	filename := fmt.Sprintf("%s__%s.json", sanitizeFilename(runID), sanitizeFilename(taskID))
	return filepath.Join(s.baseDir, sanitizeFilename(dagID), filename)
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal task entry: %w", err)
	}
	return entry, nil
}

func writeEntry(path string, entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write task entry: %w", err)
	}
	return nil
}

// sanitizeFilename replaces characters that might be problematic in filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(name)
}
