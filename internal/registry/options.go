package registry

import "spechub/pkg/models"

// Option is one dropdown entry for the external UI. Value and Label are
// the canonical name itself, except for the two sentinels.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CustomValue marks the free-text escape entry appended to every
// dropdown.
const CustomValue = "__custom__"

const customLabel = "Other (enter manually)…"

// Options builds the dropdown entries for one category from the
// registry names: an empty unselected sentinel first, the sorted
// canonical names, then the custom escape entry. Registry-only, no
// catalog or network access.
func (s *Store) Options(category models.Category) []Option {
	names := s.Names(category)
	out := make([]Option, 0, len(names)+2)
	out = append(out, Option{Value: "", Label: "— select —"})
	for _, n := range names {
		out = append(out, Option{Value: n, Label: n})
	}
	out = append(out, Option{Value: CustomValue, Label: customLabel})
	return out
}

// FindIndex returns the position of value inside opts, falling back to
// the unselected sentinel at position 0 when absent. Used by the UI to
// pre-select a previously chosen value.
func FindIndex(opts []Option, value string) int {
	for i, o := range opts {
		if o.Value == value {
			return i
		}
	}
	return 0
}
