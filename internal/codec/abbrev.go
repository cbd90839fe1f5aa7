package codec

import (
	"regexp"
	"strings"

	"spechub/pkg/models"
)

// Abbreviate converts a canonical component name into the compact form
// used inside template strings. It is pure and total: the same input
// always yields the same output, and names no rule recognizes pass
// through unchanged. The cache and the decode path both rely on that
// stability.
func Abbreviate(name string, category models.Category) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if fn, ok := strategies[category]; ok {
		return fn(name)
	}
	return name
}

// strategies is the closed dispatch table. Categories without an entry
// (ram, storage, color, os, keyboard_*) are already compact and pass
// through.
var strategies = map[models.Category]func(string) string{
	models.CategoryCPU:     abbreviateCPU,
	models.CategoryVGA:     abbreviateGraphics,
	models.CategoryGPU:     abbreviateGraphics,
	models.CategoryDisplay: abbreviateDisplay,
}

var (
	// "Intel Core i7-12700H (20 CPUs), ~2.3GHz" -> "i7-12700H"
	reCoreModel = regexp.MustCompile(`\bi[3579]-[0-9]{4,5}[A-Za-z]*\b`)
	// "Apple M2 Chip" -> "Apple M2", "Apple M3 Pro Chip" -> "Apple M3 Pro"
	reAppleChip = regexp.MustCompile(`\bApple M[0-9]+(?: (?:Pro|Max|Ultra))?\b`)
	// "AMD Ryzen 7 4800HS (16 CPUs), ~2.9GHz" -> "Ryzen 7 4800HS"
	reRyzen = regexp.MustCompile(`\bRyzen [0-9](?: PRO)?(?: [0-9]{4}[A-Za-z0-9]*)?\b`)
	// core-count and clock-speed boilerplate on unrecognized CPUs
	reCPUNoise = regexp.MustCompile(`\s*\([0-9]+ CPUs?\),?|\s*~?[0-9]+(?:\.[0-9]+)?\s?GHz`)
)

func abbreviateCPU(name string) string {
	if m := reCoreModel.FindString(name); m != "" {
		return m
	}
	if m := reAppleChip.FindString(name); m != "" {
		return m
	}
	if m := reRyzen.FindString(name); m != "" {
		return m
	}
	// unknown family: strip the boilerplate, keep the rest intact
	out := strings.TrimSpace(reCPUNoise.ReplaceAllString(name, ""))
	out = strings.Trim(out, " ,")
	if out == "" {
		return name
	}
	return out
}

var (
	reGeForce = regexp.MustCompile(`\b(?:RTX|GTX) ?[0-9]{3,4}(?: ?(?:Ti SUPER|Ti|SUPER))?\b`)
	reRadeon  = regexp.MustCompile(`\bRX ?[0-9]{3,4}[A-Z]{0,2}(?: ?(?:XTX|XT))?\b`)
	reArc     = regexp.MustCompile(`\bArc ?[A-Z]?[0-9]{3,4}[A-Z]?\b`)
	// trailing memory size: " 8GB", " 16GB GDDR6"
	reVRAM = regexp.MustCompile(`\s+[0-9]+ ?GB(?: [A-Z]*DDR[0-9][A-Za-z0-9]*)?\s*$`)
)

// graphicsVendors are stripped from the front of names no model-line
// rule recognizes, longest prefix first.
var graphicsVendors = []string{
	"NVIDIA GeForce ",
	"NVIDIA ",
	"AMD Radeon ",
	"AMD ",
	"Intel ",
}

func abbreviateGraphics(name string) string {
	if m := reGeForce.FindString(name); m != "" {
		return m
	}
	if m := reRadeon.FindString(name); m != "" {
		return m
	}
	if m := reArc.FindString(name); m != "" {
		return m
	}
	out := reVRAM.ReplaceAllString(name, "")
	for _, v := range graphicsVendors {
		if strings.HasPrefix(out, v) && len(out) > len(v) {
			out = out[len(v):]
			break
		}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return name
	}
	return out
}

var reRefresh = regexp.MustCompile(`\b([0-9]{2,3}) ?Hz\b`)

// panelTokens are checked in order; more specific names first so
// "Liquid Retina XDR" never collapses to "Retina".
var panelTokens = []string{
	"Liquid Retina XDR",
	"Liquid Retina",
	"Retina",
	"Mini-LED",
	"AMOLED",
	"OLED",
	"IPS",
	"UHD",
	"QHD",
	"FHD",
	"4K",
}

func abbreviateDisplay(name string) string {
	if m := reRefresh.FindStringSubmatch(name); m != nil {
		return m[1] + "Hz"
	}
	for _, tok := range panelTokens {
		if strings.Contains(name, tok) {
			return tok
		}
	}
	return name
}
