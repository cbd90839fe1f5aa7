package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"spechub/internal/catalog"
	"spechub/pkg/models"
)

// Required CSV columns. vga/gpu are a pair: at least one of the two
// must be present per row.
var requiredColumns = []string{"model_key", "cpu", "ram", "display", "storage", "colors"}

var allColumns = []string{
	"model_key", "display_name", "series", "year", "category",
	"cpu", "ram", "vga", "gpu", "display", "storage",
	"os", "keyboard_layout", "keyboard_backlight", "colors",
}

// Row defaults for optional columns.
const (
	defaultOS                = "Windows 11"
	defaultKeyboardLayout    = "US"
	defaultKeyboardBacklight = "None"
	defaultModelCategory     = "Laptop"
)

// RowError points at one broken field of one CSV row. Row is 1-based
// and counts data rows (the header is row 0).
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s", e.Row, e.Field, e.Message)
}

// Row is one validated CSV record, discarded after the merge.
type Row struct {
	ModelKey string
	Model    models.Model
}

// Result is the outcome of validating one CSV source. Validation never
// mutates any store.
type Result struct {
	Valid     bool       `json:"valid"`
	Errors    []RowError `json:"errors"`
	Warnings  []string   `json:"warnings"`
	RowCount  int        `json:"row_count"`
	ValidRows []Row      `json:"-"`
}

// Validate parses and checks a CSV source. Any structural problem in
// the header is returned as err; per-row problems land in
// Result.Errors with the row index and field name.
func Validate(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	res := &Result{Valid: true}
	for name := range header {
		if !knownColumn(name) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown column %q ignored", name))
		}
	}
	seen := make(map[string]int)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		res.RowCount++
		rowIdx := res.RowCount

		get := func(col string) string { return valueAt(header, record, col) }

		rowErrs := 0
		for _, col := range requiredColumns {
			if get(col) == "" {
				res.Errors = append(res.Errors, RowError{Row: rowIdx, Field: col, Message: "required"})
				rowErrs++
			}
		}
		if get("vga") == "" && get("gpu") == "" {
			res.Errors = append(res.Errors, RowError{Row: rowIdx, Field: "vga/gpu", Message: "at least one graphics field required"})
			rowErrs++
		}

		key := get("model_key")
		if key != "" {
			if prev, dup := seen[key]; dup {
				res.Errors = append(res.Errors, RowError{
					Row: rowIdx, Field: "model_key",
					Message: fmt.Sprintf("duplicate of row %d", prev),
				})
				rowErrs++
			} else {
				seen[key] = rowIdx
			}
		}

		year := 0
		if raw := get("year"); raw != "" {
			year, err = strconv.Atoi(raw)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Row: rowIdx, Field: "year", Message: "not a number"})
				rowErrs++
			}
		}

		colors := splitColors(get("colors"))
		if get("colors") != "" && len(colors) == 0 {
			res.Errors = append(res.Errors, RowError{Row: rowIdx, Field: "colors", Message: "no usable colors"})
			rowErrs++
		}

		if rowErrs > 0 {
			continue
		}

		if year == 0 {
			year = time.Now().Year()
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: year defaulted to %d", rowIdx, year))
		}

		row := Row{
			ModelKey: key,
			Model: models.Model{
				DisplayName: defaulted(get("display_name"), key),
				Series:      get("series"),
				Year:        year,
				Category:    defaulted(get("category"), defaultModelCategory),
				Configurations: []models.Configuration{{
					CPU:               get("cpu"),
					RAM:               get("ram"),
					VGA:               get("vga"),
					GPU:               get("gpu"),
					Display:           get("display"),
					Storage:           get("storage"),
					OS:                defaulted(get("os"), defaultOS),
					KeyboardLayout:    defaulted(get("keyboard_layout"), defaultKeyboardLayout),
					KeyboardBacklight: defaulted(get("keyboard_backlight"), defaultKeyboardBacklight),
				}},
				Colors: colors,
			},
		}
		res.ValidRows = append(res.ValidRows, row)
	}

	res.Valid = len(res.Errors) == 0
	return res, nil
}

// ImportAndMerge validates the CSV and, only when every row is valid,
// merges the rows into the brand catalog by model_key and persists the
// brand file. New keys are inserted; existing keys are kept untouched
// unless overwrite is set. All-or-nothing: one bad row means nothing is
// written.
func ImportAndMerge(r io.Reader, store *catalog.Store, brand string, overwrite bool) (*models.BrandCatalog, *Result, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, nil, fmt.Errorf("brand required")
	}

	res, err := Validate(r)
	if err != nil {
		return nil, nil, err
	}
	if !res.Valid {
		return nil, res, fmt.Errorf("validation failed: %d errors", len(res.Errors))
	}

	bc, ok := store.Brand(brand)
	if !ok {
		bc = models.BrandCatalog{Brand: brand, Models: make(map[string]models.Model)}
	}

	merged := models.BrandCatalog{Brand: bc.Brand, Models: make(map[string]models.Model, len(bc.Models)+len(res.ValidRows))}
	for k, v := range bc.Models {
		merged.Models[k] = v
	}

	inserted, skipped, replaced := 0, 0, 0
	for _, row := range res.ValidRows {
		if _, exists := merged.Models[row.ModelKey]; exists {
			if !overwrite {
				skipped++
				res.Warnings = append(res.Warnings, fmt.Sprintf("model %s exists, kept catalog version", row.ModelKey))
				continue
			}
			replaced++
		} else {
			inserted++
		}
		merged.Models[row.ModelKey] = row.Model
	}

	if err := store.SaveBrand(merged); err != nil {
		return nil, res, fmt.Errorf("persist brand %s: %w", brand, err)
	}

	res.Warnings = append(res.Warnings,
		fmt.Sprintf("merge: %d inserted, %d replaced, %d kept", inserted, replaced, skipped))
	return &merged, res, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(record))
	for idx, name := range record {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, record []string, col string) string {
	idx, ok := header[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func splitColors(raw string) []string {
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func knownColumn(name string) bool {
	for _, col := range allColumns {
		if col == name {
			return true
		}
	}
	return false
}

func defaulted(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
