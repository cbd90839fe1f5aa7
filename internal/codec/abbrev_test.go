package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spechub/pkg/models"
)

func TestAbbreviateCPU(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"intel core h-series", "Intel Core i7-12700H (20 CPUs), ~2.3GHz", "i7-12700H"},
		{"intel core low tier", "Intel Core i3-1115G4 (4 CPUs), ~3.0GHz", "i3-1115G4"},
		{"ryzen with suffix", "AMD Ryzen 7 4800HS (16 CPUs), ~2.9GHz", "Ryzen 7 4800HS"},
		{"ryzen bare", "AMD Ryzen 5 5600H", "Ryzen 5 5600H"},
		{"apple base", "Apple M2 Chip", "Apple M2"},
		{"apple pro", "Apple M3 Pro Chip", "Apple M3 Pro"},
		{"unknown family keeps model", "Intel Core Ultra 7 155H (16 CPUs), ~1.4GHz", "Intel Core Ultra 7 155H"},
		{"empty", "", ""},
		{"garbage passthrough", "Mystery CPU 9000", "Mystery CPU 9000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Abbreviate(tc.in, models.CategoryCPU))
		})
	}
}

func TestAbbreviateGraphics(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"rtx drops vram", "NVIDIA GeForce RTX 4060 8GB", "RTX 4060"},
		{"rtx ti", "NVIDIA GeForce RTX 4070 Ti 12GB", "RTX 4070 Ti"},
		{"gtx", "NVIDIA GeForce GTX 1650 4GB", "GTX 1650"},
		{"radeon mobile", "AMD Radeon RX 6600M 8GB", "RX 6600M"},
		{"arc", "Intel Arc A370M 4GB", "Arc A370M"},
		{"integrated drops vendor", "Intel Iris Xe Graphics", "Iris Xe Graphics"},
		{"integrated amd", "AMD Radeon Graphics", "Graphics"},
		{"unknown passthrough", "SomeVendor Pixie 1", "SomeVendor Pixie 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Abbreviate(tc.in, models.CategoryVGA))
		})
	}

	// gpu and vga share one strategy
	assert.Equal(t, "Iris Xe Graphics", Abbreviate("Intel Iris Xe Graphics", models.CategoryGPU))
}

func TestAbbreviateDisplay(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"refresh rate wins", `15.6" FHD 144Hz`, "144Hz"},
		{"high refresh", `17.3" QHD 240Hz`, "240Hz"},
		{"panel name fallback", "13.3-inch Retina", "Retina"},
		{"specific panel first", `14.2" Liquid Retina XDR`, "Liquid Retina XDR"},
		{"oled", `15.6" OLED`, "OLED"},
		{"no rule passthrough", `15.6" 1366x768`, `15.6" 1366x768`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Abbreviate(tc.in, models.CategoryDisplay))
		})
	}
}

func TestAbbreviatePassthroughCategories(t *testing.T) {
	assert.Equal(t, "16GB", Abbreviate("16GB", models.CategoryRAM))
	assert.Equal(t, "512GB SSD", Abbreviate("512GB SSD", models.CategoryStorage))
	assert.Equal(t, "Graphite Black", Abbreviate("Graphite Black", models.CategoryColor))
	assert.Equal(t, "Windows 11", Abbreviate("  Windows 11  ", models.CategoryOS))
}

func TestAbbreviateStable(t *testing.T) {
	in := "Intel Core i7-12700H (20 CPUs), ~2.3GHz"
	first := Abbreviate(in, models.CategoryCPU)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Abbreviate(in, models.CategoryCPU))
	}
}
