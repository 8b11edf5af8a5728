package domain

import (
	"errors"
	"fmt"
	"image/color"
)

// PaletteEntry ties a country code to its display name and fill color. Keeping
// the three in one struct keeps them aligned wherever the palette is iterated.
type PaletteEntry struct {
	Code  CountryCode
	Name  string
	Color color.Color
}

// Palette is the ordered country list shared by every figure.
type Palette []PaletteEntry

// Codes returns the palette codes in order.
func (p Palette) Codes() []CountryCode {
	out := make([]CountryCode, len(p))
	for i, e := range p {
		out[i] = e.Code
	}
	return out
}

// Lookup returns the entry for code.
func (p Palette) Lookup(code CountryCode) (PaletteEntry, bool) {
	for _, e := range p {
		if e.Code == code {
			return e, true
		}
	}
	return PaletteEntry{}, false
}

// Region is a rectangle in normalized [0,1]×[0,1] figure coordinates, origin
// at the bottom left.
type Region struct {
	X0, Y0, X1, Y1 float64
}

// Validate requires the region to be non-empty and inside the unit square.
func (r Region) Validate() error {
	for _, v := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if v < 0 || v > 1 {
			return fmt.Errorf("region %+v outside [0,1]", r)
		}
	}
	if r.X0 >= r.X1 || r.Y0 >= r.Y1 {
		return fmt.Errorf("region %+v is empty", r)
	}
	return nil
}

// Overlaps reports whether two regions share interior area. Touching edges do
// not count.
func (r Region) Overlaps(o Region) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// GeoWindow is a longitude/latitude clipping window in degrees.
type GeoWindow struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Validate requires a non-empty window within WGS-84 bounds.
func (w GeoWindow) Validate() error {
	if w.MinLon >= w.MaxLon || w.MinLat >= w.MaxLat {
		return fmt.Errorf("geo window %+v is empty", w)
	}
	if w.MinLon < -180 || w.MaxLon > 180 || w.MinLat < -90 || w.MaxLat > 90 {
		return fmt.Errorf("geo window %+v outside lon/lat bounds", w)
	}
	return nil
}

// Style holds every literal the figures need: palette, colors, layout
// rectangles and label placement.
type Style struct {
	Palette Palette

	BorderColor    color.Color // polygon outlines
	HighlightColor color.Color // peak-temperature markers
	MapBackground  color.Color // sea
	MapLand        color.Color // countries outside the palette
	OcclusionColor color.Color // semi-transparent box behind the precipitation inset

	MapWindow    GeoWindow
	OcclusionBox GeoWindow
	LineInsets   map[CountryCode]Region
	PrecipInset  Region

	OverlayLabelYear   float64
	OverlayLabelOffset map[CountryCode]float64 // °C above the country mean
	PanelLabelOffset   float64                 // °C above the country mean
	MeanPrecision      int                     // decimals for mean annotations
	InsetTicks         int                     // year ticks on the shrunk precipitation chart
}

// DefaultStyle is the North America layout: United States, Mexico, Canada and
// Belize, with the line insets down the Atlantic edge and the precipitation
// inset over the eastern Pacific.
func DefaultStyle() Style {
	return Style{
		Palette: Palette{
			{Code: "USA", Name: "United States", Color: color.NRGBA{R: 0x1b, G: 0x9e, B: 0x77, A: 0xff}},
			{Code: "MEX", Name: "Mexico", Color: color.NRGBA{R: 0xd9, G: 0x5f, B: 0x02, A: 0xff}},
			{Code: "CAN", Name: "Canada", Color: color.NRGBA{R: 0x75, G: 0x70, B: 0xb3, A: 0xff}},
			{Code: "BLZ", Name: "Belize", Color: color.NRGBA{R: 0xe7, G: 0x29, B: 0x8a, A: 0xff}},
		},
		BorderColor:    color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
		HighlightColor: color.NRGBA{R: 0xe3, G: 0x1a, B: 0x1c, A: 0xff},
		MapBackground:  color.NRGBA{R: 0xd6, G: 0xea, B: 0xf8, A: 0xff},
		MapLand:        color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff},
		OcclusionColor: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb4},
		MapWindow:      GeoWindow{MinLon: -170, MaxLon: -20, MinLat: 5, MaxLat: 85},
		OcclusionBox:   GeoWindow{MinLon: -168, MaxLon: -118, MinLat: 7, MaxLat: 36},
		LineInsets: map[CountryCode]Region{
			"USA": {X0: 0.72, Y0: 0.77, X1: 0.98, Y1: 0.96},
			"MEX": {X0: 0.72, Y0: 0.54, X1: 0.98, Y1: 0.73},
			"CAN": {X0: 0.72, Y0: 0.31, X1: 0.98, Y1: 0.50},
			"BLZ": {X0: 0.72, Y0: 0.08, X1: 0.98, Y1: 0.27},
		},
		PrecipInset:      Region{X0: 0.02, Y0: 0.03, X1: 0.34, Y1: 0.37},
		OverlayLabelYear: 1905,
		OverlayLabelOffset: map[CountryCode]float64{
			"USA": 1.5,
			"MEX": 1.5,
			"CAN": 1.5,
			"BLZ": 1.0,
		},
		PanelLabelOffset: 1.0,
		MeanPrecision:    1,
		InsetTicks:       3,
	}
}

// Validate checks the layout invariants: every region in the unit square, no
// two insets overlapping, a line inset per palette country, and a usable map
// window.
func (s Style) Validate() error {
	if len(s.Palette) == 0 {
		return errors.New("style: empty palette")
	}
	seen := make(map[CountryCode]bool, len(s.Palette))
	for _, e := range s.Palette {
		if e.Code == "" {
			return errors.New("style: palette entry without code")
		}
		if seen[e.Code] {
			return fmt.Errorf("style: palette lists %s twice", e.Code)
		}
		seen[e.Code] = true
		if e.Color == nil {
			return fmt.Errorf("style: palette entry %s has no color", e.Code)
		}
	}
	if err := s.MapWindow.Validate(); err != nil {
		return fmt.Errorf("style: map window: %w", err)
	}
	if err := s.OcclusionBox.Validate(); err != nil {
		return fmt.Errorf("style: occlusion box: %w", err)
	}

	insets := make([]Region, 0, len(s.Palette)+1)
	for _, e := range s.Palette {
		r, ok := s.LineInsets[e.Code]
		if !ok {
			return fmt.Errorf("style: no line inset for %s", e.Code)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("style: line inset %s: %w", e.Code, err)
		}
		insets = append(insets, r)
	}
	if err := s.PrecipInset.Validate(); err != nil {
		return fmt.Errorf("style: precipitation inset: %w", err)
	}
	insets = append(insets, s.PrecipInset)

	for i := range insets {
		for j := i + 1; j < len(insets); j++ {
			if insets[i].Overlaps(insets[j]) {
				return fmt.Errorf("style: insets %+v and %+v overlap", insets[i], insets[j])
			}
		}
	}
	if s.MeanPrecision < 0 {
		return fmt.Errorf("style: negative mean precision %d", s.MeanPrecision)
	}
	if s.InsetTicks < 2 {
		return fmt.Errorf("style: inset ticks %d, need at least 2", s.InsetTicks)
	}
	return nil
}
