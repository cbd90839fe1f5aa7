package models

// Configuration is one concrete bundle of component canonical names for
// a model. All fields hold full canonical strings, never abbreviations.
//
// The template string encodes cpu/ram/graphics/display/storage; os and
// the keyboard fields ride along in the catalog but stay out of the
// template on purpose (they do not distinguish listings visually).
type Configuration struct {
	CPU               string `json:"cpu"`
	RAM               string `json:"ram"`
	VGA               string `json:"vga,omitempty"` // dedicated graphics, optional
	GPU               string `json:"gpu,omitempty"` // integrated graphics, optional
	Display           string `json:"display"`
	Storage           string `json:"storage"`
	OS                string `json:"os,omitempty"`
	KeyboardLayout    string `json:"keyboard_layout,omitempty"`
	KeyboardBacklight string `json:"keyboard_backlight,omitempty"`
}

// Graphics returns the canonical graphics name used in the template:
// the dedicated card when present, otherwise the integrated one.
func (c Configuration) Graphics() string {
	if c.VGA != "" {
		return c.VGA
	}
	return c.GPU
}

// Model is one product model inside a brand catalog. Read-only to the
// rest of the system at runtime; written by the importer or by hand.
type Model struct {
	DisplayName    string          `json:"display_name"`
	Series         string          `json:"series,omitempty"`
	Year           int             `json:"year,omitempty"`
	Category       string          `json:"category,omitempty"` // product class, e.g. "Gaming"
	Configurations []Configuration `json:"configurations"`
	Colors         []string        `json:"colors"`
}

// BrandCatalog is the on-disk shape of one brand file:
// <data>/catalog/<brand>.json.
type BrandCatalog struct {
	Brand  string           `json:"brand"`
	Models map[string]Model `json:"models"`
}

// Match is the result of decoding a template string back to canonical
// data.
type Match struct {
	Brand         string        `json:"brand"`
	ModelKey      string        `json:"model_key"`
	Model         Model         `json:"model"`
	Configuration Configuration `json:"configuration"`
	Color         string        `json:"color"`
	// Ambiguous is the number of configurations that decoded
	// identically; 1 means the match is unique.
	Ambiguous int `json:"ambiguous,omitempty"`
}
