package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the durable snapshot of ingestion progress. One live
// instance exists per run; it is rewritten after every batch flush and on
// interrupt, and removed only after an uninterrupted full run.
type Checkpoint struct {
	Timestamp        string   `json:"timestamp"`
	Username         string   `json:"username"`
	CompletedQueries []string `json:"completed_queries"`
	CurrentQuery     string   `json:"current_query"`
	PostsCollected   int      `json:"posts_collected"`
}

// Store persists checkpoints as a JSON file at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save overwrites the snapshot on disk. The write goes to a temp file in the
// same directory followed by a rename, so a concurrent reader never sees a
// partial file.
func (s *Store) Save(completedQueries []string, currentQuery string, postsCollected int, username string) error {
	cp := Checkpoint{
		Timestamp:        time.Now().Format(time.RFC3339),
		Username:         username,
		CompletedQueries: completedQueries,
		CurrentQuery:     currentQuery,
		PostsCollected:   postsCollected,
	}
	if cp.CompletedQueries == nil {
		cp.CompletedQueries = []string{}
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	return nil
}

// Load returns the stored snapshot, or empty defaults when no checkpoint
// exists or it fails to parse. It never reports an error to the caller; a
// bad checkpoint just means a fresh start.
func (s *Store) Load() (completedQueries []string, currentQuery string, postsCollected int) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []string{}, "", 0
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return []string{}, "", 0
	}

	if cp.CompletedQueries == nil {
		cp.CompletedQueries = []string{}
	}
	return cp.CompletedQueries, cp.CurrentQuery, cp.PostsCollected
}

// Exists reports whether a checkpoint file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the durable snapshot. Missing files are not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
