// Package storage persists the pipeline's snapshot files. All files are
// pretty-printed JSON, read whole and fully rewritten, never patched in
// place. The design assumes a single writer.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/job-scanner/internal/types"
)

// Store reads and writes the JSON files under the data directory.
type Store struct {
	dataDir string
}

// NewStore creates a Store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

// ReadJSON reads path into v. A missing file is reported as an error;
// callers that treat absence as cold start check Exists first or handle
// the error.
func (s *Store) ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteJSON writes v to path as pretty-printed UTF-8 JSON. The write goes
// through a temp file in the same directory followed by a rename, so a
// crash never leaves a partial snapshot over a good one.
func (s *Store) WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}

// LoadJobSnapshot reads a prior jobs snapshot. A missing file is a cold
// start and returns an empty snapshot, not an error.
func (s *Store) LoadJobSnapshot(path string) (*types.JobSnapshot, error) {
	if !s.Exists(path) {
		return &types.JobSnapshot{SchemaVersion: types.SchemaVersion}, nil
	}
	var snap types.JobSnapshot
	if err := s.ReadJSON(path, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveJobSnapshot fully replaces the jobs snapshot.
func (s *Store) SaveJobSnapshot(path string, snap *types.JobSnapshot) error {
	return s.WriteJSON(path, snap)
}

// SaveMetaSnapshot fully replaces the meta snapshot.
func (s *Store) SaveMetaSnapshot(path string, meta *types.MetaSnapshot) error {
	return s.WriteJSON(path, meta)
}
