package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"spechub/pkg/models"
)

// Store holds every brand catalog, one JSON file per brand under dir.
// Models are read-only to the rest of the system at runtime; only the
// importer (and manual edits) write brand files.
type Store struct {
	dir string

	mu      sync.RWMutex
	brands  map[string]models.BrandCatalog
	loadErr map[string]error
}

func NewStore(dir string) *Store {
	return &Store{
		dir:     dir,
		brands:  make(map[string]models.BrandCatalog),
		loadErr: make(map[string]error),
	}
}

// Load reads every *.json brand file under the catalog dir. A malformed
// brand file disables that brand only.
func (s *Store) Load() error {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan catalog dir: %w", err)
	}
	sort.Strings(paths)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands = make(map[string]models.BrandCatalog)
	s.loadErr = make(map[string]error)

	for _, p := range paths {
		bc, err := readBrandFile(p)
		if err != nil {
			log.Printf("[catalog] load %s: %v", p, err)
			s.loadErr[brandKeyFromPath(p)] = err
			continue
		}
		s.brands[bc.Brand] = bc
	}
	return nil
}

func readBrandFile(path string) (models.BrandCatalog, error) {
	var bc models.BrandCatalog
	b, err := os.ReadFile(path)
	if err != nil {
		return bc, fmt.Errorf("read brand file: %w", err)
	}
	if err := json.Unmarshal(b, &bc); err != nil {
		return bc, fmt.Errorf("decode brand file: %w", err)
	}
	if bc.Brand == "" {
		return bc, fmt.Errorf("brand file %s: missing brand name", filepath.Base(path))
	}
	for key, m := range bc.Models {
		if len(m.Configurations) == 0 {
			return bc, fmt.Errorf("model %s: no configurations", key)
		}
		if len(m.Colors) == 0 {
			return bc, fmt.Errorf("model %s: no colors", key)
		}
	}
	if bc.Models == nil {
		bc.Models = make(map[string]models.Model)
	}
	return bc, nil
}

func brandKeyFromPath(p string) string {
	return strings.TrimSuffix(filepath.Base(p), ".json")
}

// Brands returns brand names in sorted order.
func (s *Store) Brands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.brands))
	for b := range s.brands {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Brand returns one brand catalog by name.
func (s *Store) Brand(name string) (models.BrandCatalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bc, ok := s.brands[name]
	return bc, ok
}

// LoadErrors returns every per-brand load error from the last Load.
func (s *Store) LoadErrors() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]error, len(s.loadErr))
	for k, v := range s.loadErr {
		out[k] = v
	}
	return out
}

// Err returns the load error recorded for a brand file, if any.
func (s *Store) Err(brand string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr[brand]
}

// Model finds a model by key across all brands. Brands are scanned in
// sorted order so a key present in two brands always resolves to the
// same one.
func (s *Store) Model(key string) (brand string, m models.Model, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brandNames := make([]string, 0, len(s.brands))
	for b := range s.brands {
		brandNames = append(brandNames, b)
	}
	sort.Strings(brandNames)

	for _, b := range brandNames {
		if m, ok := s.brands[b].Models[key]; ok {
			return b, m, true
		}
	}
	return "", models.Model{}, false
}

// Walk visits every model, brands and model keys both in sorted order,
// so iteration order (and therefore decode tie-breaking and template
// generation) is deterministic.
func (s *Store) Walk(fn func(brand, key string, m models.Model)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brandNames := make([]string, 0, len(s.brands))
	for b := range s.brands {
		brandNames = append(brandNames, b)
	}
	sort.Strings(brandNames)

	for _, b := range brandNames {
		bc := s.brands[b]
		keys := make([]string, 0, len(bc.Models))
		for k := range bc.Models {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fn(b, k, bc.Models[k])
		}
	}
}

// SaveBrand persists one brand catalog (temp file + rename) and updates
// the in-memory view.
func (s *Store) SaveBrand(bc models.BrandCatalog) error {
	if bc.Brand == "" {
		return fmt.Errorf("brand name required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure catalog dir: %w", err)
	}

	b, err := json.MarshalIndent(bc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode brand %s: %w", bc.Brand, err)
	}

	path := s.brandPath(bc.Brand)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace brand file: %w", err)
	}

	s.mu.Lock()
	s.brands[bc.Brand] = bc
	delete(s.loadErr, bc.Brand)
	s.mu.Unlock()
	return nil
}

// SourceFiles lists the brand file paths on disk, for cache staleness
// fingerprinting.
func (s *Store) SourceFiles() []string {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil
	}
	sort.Strings(paths)
	return paths
}

func (s *Store) brandPath(brand string) string {
	return filepath.Join(s.dir, strings.ToLower(brand)+".json")
}
