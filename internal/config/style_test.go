package config

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

func TestParseStyle_Empty(t *testing.T) {
	base := domain.DefaultStyle()
	s, err := ParseStyle([]byte(""), base)
	require.NoError(t, err)
	assert.Equal(t, base, s)
}

func TestParseStyle_Overrides(t *testing.T) {
	data := []byte(`
palette:
  - {code: CAN, name: Canada, color: "#ff0000"}
  - {code: USA, name: USA, color: "#00f"}
border_color: "#101010"
occlusion_color: "#ffffff"
occlusion_alpha: 0.5
map_window: {min_lon: -140, max_lon: -50, min_lat: 20, max_lat: 80}
line_insets:
  CAN: {x0: 0.7, y0: 0.5, x1: 0.95, y1: 0.7}
  USA: {x0: 0.7, y0: 0.2, x1: 0.95, y1: 0.4}
overlay_label_year: 1950
overlay_label_offset: {CAN: -2}
inset_ticks: 4
`)
	s, err := ParseStyle(data, domain.DefaultStyle())
	require.NoError(t, err)

	require.Len(t, s.Palette, 2)
	assert.Equal(t, domain.CountryCode("CAN"), s.Palette[0].Code)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, s.Palette[0].Color)
	assert.Equal(t, color.NRGBA{B: 0xff, A: 0xff}, s.Palette[1].Color)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}, s.BorderColor)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}, s.OcclusionColor)
	assert.Equal(t, domain.GeoWindow{MinLon: -140, MaxLon: -50, MinLat: 20, MaxLat: 80}, s.MapWindow)
	assert.Equal(t, domain.Region{X0: 0.7, Y0: 0.5, X1: 0.95, Y1: 0.7}, s.LineInsets["CAN"])
	assert.Equal(t, 1950.0, s.OverlayLabelYear)
	assert.Equal(t, -2.0, s.OverlayLabelOffset["CAN"])
	assert.Equal(t, 4, s.InsetTicks)
	assert.NoError(t, s.Validate())
}

func TestParseStyle_AlphaOnly(t *testing.T) {
	s, err := ParseStyle([]byte("occlusion_alpha: 1\n"), domain.DefaultStyle())
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, s.OcclusionColor)
}

func TestParseStyle_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "palette: [\n"},
		{"bad palette color", "palette:\n  - {code: USA, color: \"blue\"}\n"},
		{"bad border color", "border_color: \"#zzzzzz\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStyle([]byte(tt.data), domain.DefaultStyle())
			assert.Error(t, err)
		})
	}
}
