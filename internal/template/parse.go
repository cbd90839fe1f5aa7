package template

import (
	"log"
	"regexp"
	"strings"

	"spechub/internal/codec"
	"spechub/pkg/models"
)

// model_key, then the slash-joined spec block, then the color block.
var reTemplate = regexp.MustCompile(`^(.+) \[([^\[\]]*)\] \[([^\[\]]*)\]$`)

// Parse decodes a template string back to the full canonical data it
// was built from. It brute-forces the model's configurations through
// the abbreviation codec, which is fine at catalog scale (hundreds of
// configurations; one model per decode).
//
// Unmatched input returns (nil, false), never an error. When several
// configurations of the model abbreviate identically the first one in
// catalog order wins and Match.Ambiguous carries the collision count;
// the collision is logged so it surfaces instead of passing silently.
func (e *Engine) Parse(template string) (*models.Match, bool) {
	m := reTemplate.FindStringSubmatch(strings.TrimSpace(template))
	if m == nil {
		return nil, false
	}
	modelKey, specBlock, color := m[1], m[2], m[3]

	parts := strings.Split(specBlock, "/")
	if len(parts) != 5 {
		return nil, false
	}

	brand, model, ok := e.catalog.Model(modelKey)
	if !ok {
		return nil, false
	}

	colorKnown := false
	for _, c := range model.Colors {
		if c == color {
			colorKnown = true
			break
		}
	}
	if !colorKnown {
		return nil, false
	}

	var match *models.Match
	count := 0
	for _, cfg := range model.Configurations {
		if !configMatches(cfg, parts) {
			continue
		}
		count++
		if match == nil {
			match = &models.Match{
				Brand:         brand,
				ModelKey:      modelKey,
				Model:         model,
				Configuration: cfg,
				Color:         color,
			}
		}
	}
	if match == nil {
		return nil, false
	}
	match.Ambiguous = count
	if count > 1 {
		log.Printf("[template] ambiguous decode for %q: %d configurations match, using first",
			template, count)
	}
	return match, true
}

// configMatches re-abbreviates the configuration and compares it slot
// by slot against the parsed tokens.
func configMatches(cfg models.Configuration, parts []string) bool {
	gfx := cfg.VGA
	gfxCat := models.CategoryVGA
	if gfx == "" {
		gfx = cfg.GPU
		gfxCat = models.CategoryGPU
	}
	return codec.Abbreviate(cfg.CPU, models.CategoryCPU) == parts[0] &&
		codec.Abbreviate(cfg.RAM, models.CategoryRAM) == parts[1] &&
		codec.Abbreviate(gfx, gfxCat) == parts[2] &&
		codec.Abbreviate(cfg.Display, models.CategoryDisplay) == parts[3] &&
		codec.Abbreviate(cfg.Storage, models.CategoryStorage) == parts[4]
}
