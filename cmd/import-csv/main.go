package main

import (
	"flag"
	"log"
	"os"

	"spechub/internal/catalog"
	"spechub/internal/importer"
	"spechub/pkg/utils"
)

func main() {
	var (
		in        = flag.String("csv", "data/models.csv", "input CSV path")
		brand     = flag.String("brand", "", "brand the rows belong to (required)")
		overwrite = flag.Bool("overwrite", false, "replace models whose key already exists")
		dryRun    = flag.Bool("dry-run", false, "validate only, write nothing")
	)
	flag.Parse()

	if *brand == "" {
		log.Fatal("brand is required (-brand)")
	}

	dataCfg := utils.LoadDataConfig()
	store := catalog.NewStore(dataCfg.CatalogDir)
	if err := store.Load(); err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open %s: %v", *in, err)
	}
	defer f.Close()

	if *dryRun {
		res, err := importer.Validate(f)
		if err != nil {
			log.Fatalf("validate failed: %v", err)
		}
		report(res)
		if !res.Valid {
			os.Exit(1)
		}
		log.Printf("dry run: %d rows would merge into brand %s", len(res.ValidRows), *brand)
		return
	}

	merged, res, err := importer.ImportAndMerge(f, store, *brand, *overwrite)
	if res != nil {
		report(res)
	}
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("imported %s: brand %s now has %d models", *in, merged.Brand, len(merged.Models))
}

func report(res *importer.Result) {
	for _, e := range res.Errors {
		log.Printf("error: %v", e)
	}
	for _, w := range res.Warnings {
		log.Printf("warning: %s", w)
	}
}
