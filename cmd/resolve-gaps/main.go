package main

import (
	"context"
	"flag"
	"log"
	"sort"
	"time"

	"spechub/internal/catalog"
	"spechub/internal/gaps"
	"spechub/internal/ledger"
	"spechub/internal/registry"
	"spechub/pkg/database"
	"spechub/pkg/models"
	"spechub/pkg/utils"
)

// Offline coverage report and, with -resolve, a resolution run against
// the platform search API. Safe to run while the API server is up: the
// registry write is atomic and the server picks the change up through
// cache staleness.
func main() {
	var (
		resolve = flag.String("resolve", "", "category to resolve (empty = report only)")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall deadline for the resolution run")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}
	ledgerRepo := ledger.NewRepo(db)

	dataCfg := utils.LoadDataConfig()
	registryStore := registry.NewStore(dataCfg.RegistryDir, ledgerRepo)
	registryStore.Load()
	catalogStore := catalog.NewStore(dataCfg.CatalogDir)
	if err := catalogStore.Load(); err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	analyzer := gaps.NewAnalyzer(registryStore, catalogStore)
	coverage := analyzer.AnalyzeCoverage()

	cats := make([]string, 0, len(coverage))
	for c := range coverage {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	for _, c := range cats {
		cov := coverage[models.Category(c)]
		log.Printf("%-20s %3d used, %3d mapped (%.1f%%), %d missing",
			c, cov.TotalUsed, cov.Mapped, cov.CoveragePercent, len(cov.Missing))
		for _, name := range cov.Missing {
			log.Printf("    missing: %s", name)
		}
	}

	if *resolve == "" {
		return
	}
	if !models.ValidCategory(*resolve) {
		log.Fatalf("unknown category %q", *resolve)
	}
	cat := models.Category(*resolve)

	cov, ok := coverage[cat]
	if !ok || len(cov.Missing) == 0 {
		log.Printf("nothing to resolve for %s", cat)
		return
	}

	platformCfg := utils.LoadPlatformConfig()
	resolver := gaps.NewResolver(registryStore, gaps.NewPlatformClient(platformCfg.BaseURL, platformCfg.Token))
	resolver.Misses = ledgerRepo

	report, err := resolver.ResolveMissing(ctx, cat, cov.Missing)
	if err != nil {
		log.Fatalf("resolve failed: %v", err)
	}

	log.Printf("resolved %d of %d missing %s names", len(report.Resolved), len(cov.Missing), cat)
	for _, u := range report.Unresolved {
		log.Printf("    unresolved: %s (%s)", u.Name, u.Reason)
	}
}
