package models

// Category identifies one component specification category.
//
// The set is closed: registry files, dropdowns and the abbreviation
// codec all dispatch on these values, and the string form doubles as
// the registry file name (<category>.json).
type Category string

const (
	CategoryCPU               Category = "cpu"
	CategoryRAM               Category = "ram"
	CategoryVGA               Category = "vga" // dedicated graphics
	CategoryGPU               Category = "gpu" // integrated graphics
	CategoryDisplay           Category = "display"
	CategoryStorage           Category = "storage"
	CategoryColor             Category = "color"
	CategoryOS                Category = "os"
	CategoryKeyboardLayout    Category = "keyboard_layout"
	CategoryKeyboardBacklight Category = "keyboard_backlight"
)

// AllCategories is the closed category set in display order.
var AllCategories = []Category{
	CategoryCPU,
	CategoryRAM,
	CategoryVGA,
	CategoryGPU,
	CategoryDisplay,
	CategoryStorage,
	CategoryColor,
	CategoryOS,
	CategoryKeyboardLayout,
	CategoryKeyboardBacklight,
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}
