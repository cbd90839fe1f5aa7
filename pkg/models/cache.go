package models

import "time"

// CacheArtifact is the persisted template cache. It is rebuilt wholesale
// on every regeneration and replaced atomically, never patched.
type CacheArtifact struct {
	GeneratedAt    time.Time `json:"generated_at"`
	TotalTemplates int       `json:"total_templates"`
	Templates      []string  `json:"templates"`
	Version        string    `json:"version"`
	SourceFiles    []string  `json:"source_files"`
}

// Coverage is the per-category registry coverage report produced by the
// gap analyzer.
type Coverage struct {
	Category        Category `json:"category"`
	TotalUsed       int      `json:"total_used"`
	Mapped          int      `json:"mapped"`
	Missing         []string `json:"missing"`
	CoveragePercent float64  `json:"coverage_percent"`
}
