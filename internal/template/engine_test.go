package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spechub/internal/catalog"
	"spechub/internal/registry"
	"spechub/pkg/models"
)

const asusBrand = `{
  "brand": "ASUS",
  "models": {
    "ASUS TUF F15 FX507ZV4": {
      "display_name": "TUF Gaming F15",
      "series": "TUF",
      "year": 2023,
      "category": "Gaming",
      "configurations": [
        {
          "cpu": "Intel Core i7-12700H (20 CPUs), ~2.3GHz",
          "ram": "16GB",
          "vga": "NVIDIA GeForce RTX 4060 8GB",
          "display": "15.6\" FHD 144Hz",
          "storage": "512GB SSD",
          "os": "Windows 11",
          "keyboard_layout": "US",
          "keyboard_backlight": "RGB"
        },
        {
          "cpu": "Intel Core i5-12500H (16 CPUs), ~2.5GHz",
          "ram": "8GB",
          "vga": "NVIDIA GeForce RTX 4050 6GB",
          "display": "15.6\" FHD 144Hz",
          "storage": "512GB SSD"
        }
      ],
      "colors": ["Graphite Black", "Mecha Gray"]
    }
  }
}`

const macBrand = `{
  "brand": "Apple",
  "models": {
    "MacBook Air M2 2022": {
      "display_name": "MacBook Air",
      "year": 2022,
      "configurations": [
        {
          "cpu": "Apple M2 Chip",
          "ram": "8GB",
          "gpu": "Apple 8-core GPU",
          "display": "13.6-inch Liquid Retina",
          "storage": "256GB SSD",
          "os": "macOS"
        }
      ],
      "colors": ["Midnight"]
    }
  }
}`

type env struct {
	engine *Engine
	catDir string
	regDir string
	cache  string
	regens int
}

func newEnv(t *testing.T, brandFiles map[string]string) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		regDir: filepath.Join(root, "registry"),
		catDir: filepath.Join(root, "catalog"),
		cache:  filepath.Join(root, "cache", "templates.json"),
	}
	require.NoError(t, os.MkdirAll(e.regDir, 0o755))
	require.NoError(t, os.MkdirAll(e.catDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(e.regDir, "vga.json"),
		[]byte(`{"NVIDIA GeForce RTX 4060 8GB": "scheme://authority/Metaobject/1"}`), 0o644))
	for name, body := range brandFiles {
		require.NoError(t, os.WriteFile(filepath.Join(e.catDir, name), []byte(body), 0o644))
	}

	reg := registry.NewStore(e.regDir, nil)
	reg.Load()
	cat := catalog.NewStore(e.catDir)
	require.NoError(t, cat.Load())

	e.engine = NewEngine(e.cache, reg, cat)
	e.engine.SetOnRegenerated(func(models.CacheArtifact) { e.regens++ })
	return e
}

func TestBuildTemplateScenario(t *testing.T) {
	cfg := models.Configuration{
		CPU:     "Intel Core i7-12700H (20 CPUs), ~2.3GHz",
		RAM:     "16GB",
		VGA:     "NVIDIA GeForce RTX 4060 8GB",
		Display: `15.6" FHD 144Hz`,
		Storage: "512GB SSD",
	}
	got := BuildTemplate("ASUS TUF F15 FX507ZV4", cfg, "Graphite Black")
	assert.Equal(t, "ASUS TUF F15 FX507ZV4 [i7-12700H/16GB/RTX 4060/144Hz/512GB SSD] [Graphite Black]", got)
}

func TestTemplatesCountAndIdempotence(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand, "apple.json": macBrand})

	first, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	// ASUS: 2 configurations x 2 colors, Apple: 1 x 1
	assert.Len(t, first, 5)
	assert.Equal(t, 1, e.regens)

	second, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.regens, "unchanged sources must not regenerate")

	art, err := e.engine.Artifact()
	require.NoError(t, err)
	assert.Equal(t, len(first), art.TotalTemplates)
	assert.Equal(t, first, art.Templates)
}

func TestStalenessDetection(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand})

	_, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, e.regens)

	// grow the catalog and push its mtime past the cache mtime
	brandPath := filepath.Join(e.catDir, "apple.json")
	require.NoError(t, os.WriteFile(brandPath, []byte(macBrand), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(brandPath, future, future))

	got, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, e.regens, "exactly one regeneration after the change")
	assert.Len(t, got, 5)

	art, err := e.engine.Artifact()
	require.NoError(t, err)
	assert.Equal(t, 5, art.TotalTemplates)
}

func TestDeletedBrandInvalidatesCache(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand, "apple.json": macBrand})

	first, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 5)
	require.Equal(t, 1, e.regens)

	// the brand file disappears; mtimes alone cannot see that
	require.NoError(t, os.Remove(filepath.Join(e.catDir, "apple.json")))

	got, err := e.engine.Templates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, e.regens, "removed source must trigger a regeneration")
	require.Len(t, got, 4)
	for _, tpl := range got {
		assert.NotContains(t, tpl, "MacBook Air M2 2022")
	}
}

func TestRegenerateFailureKeepsLastGoodArtifact(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand})

	first, err := e.engine.Templates(context.Background())
	require.NoError(t, err)

	// break the catalog on disk
	brandPath := filepath.Join(e.catDir, "asus.json")
	require.NoError(t, os.WriteFile(brandPath, []byte(`{broken`), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(brandPath, future, future))

	got, err := e.engine.Templates(context.Background())
	require.Error(t, err)
	assert.Equal(t, first, got, "last good cache keeps serving")

	art, readErr := e.engine.Artifact()
	require.NoError(t, readErr)
	assert.Equal(t, first, art.Templates, "artifact file untouched by the failed run")
	assert.Equal(t, 1, e.regens)
}

func TestRoundTripLaw(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand, "apple.json": macBrand})

	type triple struct {
		key   string
		cfg   models.Configuration
		color string
	}
	var all []triple
	cat := catalog.NewStore(e.catDir)
	require.NoError(t, cat.Load())
	cat.Walk(func(_, key string, m models.Model) {
		for _, cfg := range m.Configurations {
			for _, color := range m.Colors {
				all = append(all, triple{key, cfg, color})
			}
		}
	})
	require.NotEmpty(t, all)

	for _, tr := range all {
		tpl := BuildTemplate(tr.key, tr.cfg, tr.color)
		match, ok := e.engine.Parse(tpl)
		require.True(t, ok, "template %q must decode", tpl)
		assert.Equal(t, tr.cfg, match.Configuration, "template %q", tpl)
		assert.Equal(t, tr.color, match.Color)
		assert.Equal(t, tr.key, match.ModelKey)
		assert.Equal(t, 1, match.Ambiguous, "template %q decodes uniquely", tpl)
	}
}

func TestParseNotFound(t *testing.T) {
	e := newEnv(t, map[string]string{"asus.json": asusBrand})

	cases := []struct {
		name string
		in   string
	}{
		{"garbage", "not a template at all"},
		{"unknown model", "Dell XPS 15 9530 [i7-12700H/16GB/RTX 4060/144Hz/512GB SSD] [Black]"},
		{"unknown color", "ASUS TUF F15 FX507ZV4 [i7-12700H/16GB/RTX 4060/144Hz/512GB SSD] [Neon Pink]"},
		{"wrong component", "ASUS TUF F15 FX507ZV4 [i9-13900H/16GB/RTX 4060/144Hz/512GB SSD] [Graphite Black]"},
		{"too few slots", "ASUS TUF F15 FX507ZV4 [i7-12700H/16GB/RTX 4060] [Graphite Black]"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match, ok := e.engine.Parse(tc.in)
			assert.False(t, ok)
			assert.Nil(t, match)
		})
	}
}

func TestParseAmbiguousCollision(t *testing.T) {
	// two configurations differing only in a field the template drops
	const brand = `{
	  "brand": "Lenovo",
	  "models": {
	    "Legion 5 15ARH7H": {
	      "configurations": [
	        {"cpu": "AMD Ryzen 7 6800H", "ram": "16GB", "vga": "NVIDIA GeForce RTX 3060 6GB",
	         "display": "15.6\" QHD 165Hz", "storage": "1TB SSD", "os": "Windows 11"},
	        {"cpu": "AMD Ryzen 7 6800H", "ram": "16GB", "vga": "NVIDIA GeForce RTX 3060 6GB",
	         "display": "15.6\" QHD 165Hz", "storage": "1TB SSD", "os": "Windows 11 Pro"}
	      ],
	      "colors": ["Storm Grey"]
	    }
	  }
	}`
	e := newEnv(t, map[string]string{"lenovo.json": brand})

	tpl := BuildTemplate("Legion 5 15ARH7H", models.Configuration{
		CPU: "AMD Ryzen 7 6800H", RAM: "16GB", VGA: "NVIDIA GeForce RTX 3060 6GB",
		Display: `15.6" QHD 165Hz`, Storage: "1TB SSD",
	}, "Storm Grey")

	match, ok := e.engine.Parse(tpl)
	require.True(t, ok)
	// first match in catalog order wins; the collision is reported
	assert.Equal(t, "Windows 11", match.Configuration.OS)
	assert.Equal(t, 2, match.Ambiguous)
}
