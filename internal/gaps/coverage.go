package gaps

import (
	"sort"

	"spechub/internal/catalog"
	"spechub/internal/registry"
	"spechub/pkg/models"
)

// Analyzer diffs the canonical names the catalog actually uses against
// the registry's known names, per category.
type Analyzer struct {
	Registry *registry.Store
	Catalog  *catalog.Store
}

func NewAnalyzer(reg *registry.Store, cat *catalog.Store) *Analyzer {
	return &Analyzer{Registry: reg, Catalog: cat}
}

// UsedNames collects every canonical name referenced by any
// configuration (and every model color) across the whole catalog,
// de-duplicated per category.
func (a *Analyzer) UsedNames() map[models.Category][]string {
	sets := make(map[models.Category]map[string]struct{})
	add := func(cat models.Category, name string) {
		if name == "" {
			return
		}
		if sets[cat] == nil {
			sets[cat] = make(map[string]struct{})
		}
		sets[cat][name] = struct{}{}
	}

	a.Catalog.Walk(func(_, _ string, m models.Model) {
		for _, cfg := range m.Configurations {
			add(models.CategoryCPU, cfg.CPU)
			add(models.CategoryRAM, cfg.RAM)
			add(models.CategoryVGA, cfg.VGA)
			add(models.CategoryGPU, cfg.GPU)
			add(models.CategoryDisplay, cfg.Display)
			add(models.CategoryStorage, cfg.Storage)
			add(models.CategoryOS, cfg.OS)
			add(models.CategoryKeyboardLayout, cfg.KeyboardLayout)
			add(models.CategoryKeyboardBacklight, cfg.KeyboardBacklight)
		}
		for _, color := range m.Colors {
			add(models.CategoryColor, color)
		}
	})

	out := make(map[models.Category][]string, len(sets))
	for cat, set := range sets {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		out[cat] = names
	}
	return out
}

// AnalyzeCoverage reports, per category, how many used names the
// registry can resolve and which ones it cannot.
func (a *Analyzer) AnalyzeCoverage() map[models.Category]models.Coverage {
	used := a.UsedNames()
	out := make(map[models.Category]models.Coverage, len(used))

	for _, cat := range models.AllCategories {
		names := used[cat]
		if len(names) == 0 {
			continue
		}

		known := make(map[string]struct{})
		for _, n := range a.Registry.Names(cat) {
			known[n] = struct{}{}
		}

		cov := models.Coverage{Category: cat, TotalUsed: len(names), Missing: []string{}}
		for _, n := range names {
			if _, ok := known[n]; ok {
				cov.Mapped++
			} else {
				cov.Missing = append(cov.Missing, n)
			}
		}
		cov.CoveragePercent = 100 * float64(cov.Mapped) / float64(cov.TotalUsed)
		out[cat] = cov
	}
	return out
}
