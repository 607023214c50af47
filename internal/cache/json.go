package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// JSONStore keeps all entries in a single JSON object file keyed by PMID.
// The whole file is rewritten on every Put.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
	logger  *zap.Logger
}

// OpenJSON loads the cache file at path (see ResolvePath). A missing file
// starts an empty cache; a malformed one is ignored with a warning.
func OpenJSON(path string, logger *zap.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &JSONStore{
		path:    ResolvePath(path, DefaultFileName),
		entries: make(map[string]Entry),
		logger:  logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Cache file not found, starting empty", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache file: %w", err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("Cache file is malformed, ignoring it", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	if entries != nil {
		s.entries = entries
	}
	s.logger.Debug("Loaded cache file", zap.String("path", s.path), zap.Int("entries", len(s.entries)))
	return nil
}

// Get returns the entry for pmid.
func (s *JSONStore) Get(_ context.Context, pmid string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[pmid]
	return e, ok, nil
}

// Put merges entries and rewrites the file.
func (s *JSONStore) Put(_ context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range entries {
		s.entries[id] = e
	}
	return s.save()
}

// save writes the entries to a temporary file and renames it into place.
func (s *JSONStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pmidcite-cache-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache file: %w", err)
	}

	s.logger.Debug("Saved cache file", zap.String("path", s.path), zap.Int("entries", len(s.entries)))
	return nil
}

// Len returns the number of cached entries.
func (s *JSONStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Clear drops all entries and removes the file.
func (s *JSONStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Location returns the cache file path.
func (s *JSONStore) Location() string {
	return s.path
}

// Close is a no-op; every Put is already persisted.
func (s *JSONStore) Close() error {
	return nil
}
