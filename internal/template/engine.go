package template

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"spechub/internal/catalog"
	"spechub/internal/codec"
	"spechub/internal/registry"
	"spechub/pkg/models"
)

// artifactVersion tags the cache file; bump it whenever the template
// grammar changes so old artifacts regenerate instead of being served.
const artifactVersion = "2"

// Engine owns the template cache artifact. It derives every template
// string the catalog can produce, persists them in one file, detects
// staleness against the registry and catalog source files, and decodes
// chosen templates back to canonical data.
//
// Lifecycle: Fresh -> Stale (a source file changed) -> regenerating ->
// Fresh. Regeneration is lazy: it happens on the first access that
// observes staleness, never on a timer.
type Engine struct {
	cachePath string
	registry  *registry.Store
	catalog   *catalog.Store

	mu        sync.Mutex
	staleHint atomic.Bool

	// onRegenerated, when set, is invoked after a successful
	// regeneration (the notify hub hangs off this).
	onRegenerated func(models.CacheArtifact)
}

func NewEngine(cachePath string, reg *registry.Store, cat *catalog.Store) *Engine {
	return &Engine{
		cachePath: cachePath,
		registry:  reg,
		catalog:   cat,
	}
}

func (e *Engine) SetOnRegenerated(fn func(models.CacheArtifact)) {
	e.onRegenerated = fn
}

// MarkStale is an advisory nudge (from the fs watcher). The engine
// still verifies mtimes itself, but the hint forces the next access to
// re-check even when mtime resolution hides a quick rewrite.
func (e *Engine) MarkStale() {
	e.staleHint.Store(true)
}

// BuildTemplate encodes one (model, configuration, color) choice:
//
//	<model_key> [<cpu>/<ram>/<graphics>/<display>/<storage>] [<color>]
//
// cpu, graphics and display are abbreviated; ram and storage are
// already compact. The graphics slot holds the dedicated card when the
// configuration has one, otherwise the integrated chip.
func BuildTemplate(modelKey string, cfg models.Configuration, color string) string {
	gfx := cfg.VGA
	gfxCat := models.CategoryVGA
	if gfx == "" {
		gfx = cfg.GPU
		gfxCat = models.CategoryGPU
	}

	parts := []string{
		codec.Abbreviate(cfg.CPU, models.CategoryCPU),
		codec.Abbreviate(cfg.RAM, models.CategoryRAM),
		codec.Abbreviate(gfx, gfxCat),
		codec.Abbreviate(cfg.Display, models.CategoryDisplay),
		codec.Abbreviate(cfg.Storage, models.CategoryStorage),
	}
	return fmt.Sprintf("%s [%s] [%s]", modelKey, strings.Join(parts, "/"), color)
}

// Templates returns the full ordered template list, regenerating first
// when the cache is stale. Between source changes repeated calls return
// the persisted artifact's list unchanged.
//
// When regeneration fails the previous artifact's templates (if any)
// are returned together with the error, so callers keep serving the
// last good cache while still seeing the failure.
func (e *Engine) Templates(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stale := e.staleHint.Swap(false) || e.checkStale()
	if !stale {
		art, err := e.readArtifact()
		if err == nil {
			return art.Templates, nil
		}
		log.Printf("[template] unreadable cache artifact, regenerating: %v", err)
	}

	art, err := e.regenerateLocked(ctx)
	if err != nil {
		if prev, readErr := e.readArtifact(); readErr == nil {
			return prev.Templates, fmt.Errorf("regenerate (serving stale cache): %w", err)
		}
		return nil, err
	}
	return art.Templates, nil
}

// Regenerate rebuilds and persists the artifact unconditionally.
func (e *Engine) Regenerate(ctx context.Context) (models.CacheArtifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regenerateLocked(ctx)
}

// Artifact reads the persisted artifact without any freshness check.
func (e *Engine) Artifact() (models.CacheArtifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readArtifact()
}

// Stale reports whether any source file is newer than the cache.
func (e *Engine) Stale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkStale()
}

// checkStale: the cache is fresh only when the artifact exists, carries
// the current version, was built from exactly the source files present
// on disk now, and its mtime is >= every source file's mtime. The set
// comparison is what catches deletions: a removed brand or registry
// file no longer shows up in sourceFiles(), so mtimes alone would
// never notice it.
func (e *Engine) checkStale() bool {
	st, err := os.Stat(e.cachePath)
	if err != nil {
		return true
	}
	art, err := e.readArtifact()
	if err != nil || art.Version != artifactVersion {
		return true
	}

	sources := e.sourceFiles()
	if !sameSources(art.SourceFiles, sources) {
		return true
	}

	cacheMtime := st.ModTime()
	for _, src := range sources {
		sst, err := os.Stat(src)
		if err != nil {
			// deleted between listing and stat
			return true
		}
		if sst.ModTime().After(cacheMtime) {
			return true
		}
	}
	return false
}

func sameSources(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func (e *Engine) sourceFiles() []string {
	files := append([]string{}, e.registry.SourceFiles()...)
	files = append(files, e.catalog.SourceFiles()...)
	return files
}

func (e *Engine) regenerateLocked(ctx context.Context) (models.CacheArtifact, error) {
	if err := ctx.Err(); err != nil {
		return models.CacheArtifact{}, err
	}

	// the catalog may have changed on disk since process start
	if err := e.catalog.Load(); err != nil {
		return models.CacheArtifact{}, fmt.Errorf("reload catalog: %w", err)
	}
	// a half-loaded catalog would silently shrink the template set;
	// keep the previous artifact instead
	if errs := e.catalog.LoadErrors(); len(errs) > 0 {
		for brand, err := range errs {
			return models.CacheArtifact{}, fmt.Errorf("catalog brand %s: %w", brand, err)
		}
	}

	var templates []string
	e.catalog.Walk(func(_, key string, m models.Model) {
		for _, cfg := range m.Configurations {
			for _, color := range m.Colors {
				templates = append(templates, BuildTemplate(key, cfg, color))
			}
		}
	})
	sort.Strings(templates)

	art := models.CacheArtifact{
		GeneratedAt:    time.Now().UTC(),
		TotalTemplates: len(templates),
		Templates:      templates,
		Version:        artifactVersion,
		SourceFiles:    e.sourceFiles(),
	}

	if err := e.writeArtifact(art); err != nil {
		return models.CacheArtifact{}, err
	}
	log.Printf("[template] regenerated cache: %d templates", art.TotalTemplates)

	if e.onRegenerated != nil {
		e.onRegenerated(art)
	}
	return art, nil
}

func (e *Engine) readArtifact() (models.CacheArtifact, error) {
	var art models.CacheArtifact
	b, err := os.ReadFile(e.cachePath)
	if err != nil {
		return art, fmt.Errorf("read cache artifact: %w", err)
	}
	if err := json.Unmarshal(b, &art); err != nil {
		return art, fmt.Errorf("decode cache artifact: %w", err)
	}
	return art, nil
}

// writeArtifact replaces the cache file atomically: a crash mid-write
// leaves the previous artifact intact, and concurrent writers simply
// race to rename identical content (last writer wins).
func (e *Engine) writeArtifact(art models.CacheArtifact) error {
	if err := os.MkdirAll(filepath.Dir(e.cachePath), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}
	b, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache artifact: %w", err)
	}
	tmp := fmt.Sprintf("%s.%d.tmp", e.cachePath, os.Getpid())
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := os.Rename(tmp, e.cachePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace cache artifact: %w", err)
	}
	return nil
}
