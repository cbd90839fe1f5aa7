package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"spechub/pkg/models"
)

// MissRecorder receives every failed lookup so unmapped names can be
// triaged later. Implemented by the ledger; nil disables recording.
type MissRecorder interface {
	RecordMiss(ctx context.Context, category models.Category, name, usage string) error
}

// Store maps canonical component names to external reference ids, one
// JSON file per category. Files are read once per process; writes go
// through Put+Save (gap resolver only).
type Store struct {
	dir    string
	misses MissRecorder

	mu      sync.RWMutex
	entries map[models.Category]map[string]string
	loadErr map[models.Category]error
}

func NewStore(dir string, misses MissRecorder) *Store {
	return &Store{
		dir:     dir,
		misses:  misses,
		entries: make(map[models.Category]map[string]string),
		loadErr: make(map[models.Category]error),
	}
}

// Load reads every category file. A missing or malformed file disables
// that category only; the others stay usable. The per-category error is
// kept and reported by Err.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cat := range models.AllCategories {
		path := s.path(cat)
		m, err := readCategoryFile(path)
		if err != nil {
			log.Printf("[registry] load %s: %v", path, err)
			s.loadErr[cat] = err
			delete(s.entries, cat)
			continue
		}
		delete(s.loadErr, cat)
		s.entries[cat] = m
	}
}

func readCategoryFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category file: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode category file: %w", err)
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m, nil
}

// Err returns the load error for one category, nil when it loaded fine.
func (s *Store) Err(category models.Category) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr[category]
}

// Lookup resolves a canonical name to its external reference id.
// The match is exact and case-sensitive; misses are recorded in the
// ledger and returned as ok=false, never as an error.
func (s *Store) Lookup(ctx context.Context, category models.Category, name string) (string, bool) {
	s.mu.RLock()
	id, ok := s.entries[category][name]
	s.mu.RUnlock()

	if !ok && name != "" && s.misses != nil {
		if err := s.misses.RecordMiss(ctx, category, name, "registry lookup"); err != nil {
			log.Printf("[registry] record miss %s/%q: %v", category, name, err)
		}
	}
	return id, ok
}

// Names returns the sorted canonical names known for a category.
func (s *Store) Names(category models.Category) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.entries[category]))
	for name := range s.entries[category] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Put adds or replaces a mapping in memory. Save must be called to
// persist it.
func (s *Store) Put(category models.Category, name, externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[category] == nil {
		s.entries[category] = make(map[string]string)
		delete(s.loadErr, category)
	}
	s.entries[category][name] = externalID
}

// Save persists one category file. The previous file, when present, is
// copied to a timestamped .bak first; the new content goes through a
// temp file and rename so readers never see a partial write.
func (s *Store) Save(category models.Category) error {
	s.mu.RLock()
	m := make(map[string]string, len(s.entries[category]))
	for k, v := range s.entries[category] {
		m[k] = v
	}
	s.mu.RUnlock()

	path := s.path(category)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure registry dir: %w", err)
	}

	if prev, err := os.ReadFile(path); err == nil {
		bak := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		if err := os.WriteFile(bak, prev, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode category %s: %w", category, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace category file: %w", err)
	}
	return nil
}

// SourceFiles lists the category file paths that exist on disk; the
// cache engine fingerprints them for staleness checks.
func (s *Store) SourceFiles() []string {
	var out []string
	for _, cat := range models.AllCategories {
		p := s.path(cat)
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) path(category models.Category) string {
	return filepath.Join(s.dir, string(category)+".json")
}
