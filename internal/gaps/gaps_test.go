package gaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spechub/internal/catalog"
	"spechub/internal/registry"
	"spechub/pkg/models"
)

func buildStores(t *testing.T, registryFiles map[models.Category]string, brandFiles map[string]string) (*registry.Store, *catalog.Store) {
	t.Helper()
	root := t.TempDir()
	regDir := filepath.Join(root, "registry")
	catDir := filepath.Join(root, "catalog")
	require.NoError(t, os.MkdirAll(regDir, 0o755))
	require.NoError(t, os.MkdirAll(catDir, 0o755))

	for cat, body := range registryFiles {
		require.NoError(t, os.WriteFile(filepath.Join(regDir, string(cat)+".json"), []byte(body), 0o644))
	}
	for name, body := range brandFiles {
		require.NoError(t, os.WriteFile(filepath.Join(catDir, name), []byte(body), 0o644))
	}

	reg := registry.NewStore(regDir, nil)
	reg.Load()
	cat := catalog.NewStore(catDir)
	require.NoError(t, cat.Load())
	return reg, cat
}

func TestCoverageArithmetic(t *testing.T) {
	// 20 distinct storage names used, 15 mapped
	modelsJSON := make(map[string]any)
	regJSON := make(map[string]string)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Disk-%02d", i)
		modelsJSON[fmt.Sprintf("Model %02d", i)] = map[string]any{
			"configurations": []map[string]string{{
				"cpu": "c", "ram": "8GB", "gpu": "g", "display": "d", "storage": name,
			}},
			"colors": []string{"Black"},
		}
		if i < 15 {
			regJSON[name] = fmt.Sprintf("scheme://authority/Metaobject/%d", i)
		}
	}
	brand, err := json.Marshal(map[string]any{"brand": "X", "models": modelsJSON})
	require.NoError(t, err)
	regBody, err := json.Marshal(regJSON)
	require.NoError(t, err)

	reg, cat := buildStores(t,
		map[models.Category]string{models.CategoryStorage: string(regBody)},
		map[string]string{"x.json": string(brand)})

	cov := NewAnalyzer(reg, cat).AnalyzeCoverage()[models.CategoryStorage]
	assert.Equal(t, 20, cov.TotalUsed)
	assert.Equal(t, 15, cov.Mapped)
	assert.Equal(t, 75.0, cov.CoveragePercent)
	require.Len(t, cov.Missing, 5)
	assert.Equal(t, []string{"Disk-15", "Disk-16", "Disk-17", "Disk-18", "Disk-19"}, cov.Missing)
}

func TestCoverageIncludesColorsAndRideAlongFields(t *testing.T) {
	const brand = `{
	  "brand": "ASUS",
	  "models": {
	    "M1": {
	      "configurations": [{"cpu": "CPU A", "ram": "16GB", "vga": "VGA A", "display": "D A",
	                          "storage": "S A", "os": "Windows 11", "keyboard_layout": "US",
	                          "keyboard_backlight": "RGB"}],
	      "colors": ["Black", "Silver"]
	    }
	  }
	}`
	reg, cat := buildStores(t, nil, map[string]string{"asus.json": brand})
	cov := NewAnalyzer(reg, cat).AnalyzeCoverage()

	assert.Equal(t, 2, cov[models.CategoryColor].TotalUsed)
	assert.Equal(t, 1, cov[models.CategoryOS].TotalUsed)
	assert.Equal(t, 1, cov[models.CategoryKeyboardBacklight].TotalUsed)
	assert.Equal(t, 0.0, cov[models.CategoryCPU].CoveragePercent)
	// gpu never used by this catalog: no report entry at all
	_, ok := cov[models.CategoryGPU]
	assert.False(t, ok)
}

type scriptedSearcher struct {
	// results maps name -> reference id; missing names yield ErrNoMatch
	results map[string]string
	// failures[name] counts transient errors returned before success
	failures map[string]int
	calls    map[string]int
}

func (s *scriptedSearcher) Search(_ context.Context, _ models.Category, name string) (string, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
	if s.failures[name] > 0 {
		s.failures[name]--
		return "", errors.New("platform: status 502")
	}
	id, ok := s.results[name]
	if !ok {
		return "", ErrNoMatch
	}
	return id, nil
}

func TestResolveMissingPersistsConfirmedMatches(t *testing.T) {
	reg, _ := buildStores(t,
		map[models.Category]string{models.CategoryVGA: `{"Known": "scheme://a/M/0"}`}, nil)

	searcher := &scriptedSearcher{
		results:  map[string]string{"NVIDIA GeForce RTX 4070 8GB": "scheme://authority/Metaobject/42"},
		failures: map[string]int{"NVIDIA GeForce RTX 4070 8GB": 2}, // transient, retried away
	}
	r := NewResolver(reg, searcher)

	report, err := r.ResolveMissing(context.Background(), models.CategoryVGA,
		[]string{"NVIDIA GeForce RTX 4070 8GB", "Mystery Card"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"NVIDIA GeForce RTX 4070 8GB": "scheme://authority/Metaobject/42",
	}, report.Resolved)
	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, "Mystery Card", report.Unresolved[0].Name)
	assert.Equal(t, 3, searcher.calls["NVIDIA GeForce RTX 4070 8GB"])
	assert.Equal(t, 1, searcher.calls["Mystery Card"], "no retry on a clean no-match")

	// persisted: a fresh store sees the new mapping
	id, ok := reg.Lookup(context.Background(), models.CategoryVGA, "NVIDIA GeForce RTX 4070 8GB")
	require.True(t, ok)
	assert.Equal(t, "scheme://authority/Metaobject/42", id)
}

func TestResolveMissingGivesUpAfterBoundedRetries(t *testing.T) {
	reg, _ := buildStores(t,
		map[models.Category]string{models.CategoryCPU: `{}`}, nil)

	searcher := &scriptedSearcher{
		results:  map[string]string{"Flaky CPU": "scheme://a/M/9"},
		failures: map[string]int{"Flaky CPU": 50}, // never recovers in time
	}
	r := NewResolver(reg, searcher)
	r.MaxRetries = 2

	report, err := r.ResolveMissing(context.Background(), models.CategoryCPU, []string{"Flaky CPU"})
	require.NoError(t, err)

	assert.Empty(t, report.Resolved)
	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, 3, searcher.calls["Flaky CPU"], "initial attempt plus MaxRetries")
}
