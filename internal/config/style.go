package config

import (
	"fmt"
	"image/color"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// styleFile is the YAML form of domain.Style. Every field is optional; unset
// fields keep the base style's value.
type styleFile struct {
	Palette []struct {
		Code  string `yaml:"code"`
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"palette"`

	BorderColor    string   `yaml:"border_color"`
	HighlightColor string   `yaml:"highlight_color"`
	MapBackground  string   `yaml:"map_background"`
	MapLand        string   `yaml:"map_land"`
	OcclusionColor string   `yaml:"occlusion_color"`
	OcclusionAlpha *float64 `yaml:"occlusion_alpha"`

	MapWindow    *geoWindow        `yaml:"map_window"`
	OcclusionBox *geoWindow        `yaml:"occlusion_box"`
	LineInsets   map[string]region `yaml:"line_insets"`
	PrecipInset  *region           `yaml:"precip_inset"`

	OverlayLabelYear   *float64           `yaml:"overlay_label_year"`
	OverlayLabelOffset map[string]float64 `yaml:"overlay_label_offset"`
	PanelLabelOffset   *float64           `yaml:"panel_label_offset"`
	MeanPrecision      *int               `yaml:"mean_precision"`
	InsetTicks         *int               `yaml:"inset_ticks"`
}

type geoWindow struct {
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
}

type region struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
}

// LoadStyle reads a YAML style file and applies it on top of base.
func LoadStyle(path string, base domain.Style) (domain.Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Style{}, fmt.Errorf("read style: %w", err)
	}
	return ParseStyle(data, base)
}

// ParseStyle applies YAML style overrides on top of base.
func ParseStyle(data []byte, base domain.Style) (domain.Style, error) {
	var f styleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Style{}, fmt.Errorf("parse style: %w", err)
	}

	s := base
	if len(f.Palette) > 0 {
		s.Palette = make(domain.Palette, 0, len(f.Palette))
		for _, e := range f.Palette {
			c, err := parseColor(e.Color, 0xff)
			if err != nil {
				return domain.Style{}, fmt.Errorf("palette %s: %w", e.Code, err)
			}
			s.Palette = append(s.Palette, domain.PaletteEntry{Code: domain.CountryCode(e.Code), Name: e.Name, Color: c})
		}
	}

	for _, o := range []struct {
		hex   string
		alpha uint8
		dst   *color.Color
	}{
		{f.BorderColor, 0xff, &s.BorderColor},
		{f.HighlightColor, 0xff, &s.HighlightColor},
		{f.MapBackground, 0xff, &s.MapBackground},
		{f.MapLand, 0xff, &s.MapLand},
		{f.OcclusionColor, occlusionAlpha(f.OcclusionAlpha, s.OcclusionColor), &s.OcclusionColor},
	} {
		if o.hex == "" {
			continue
		}
		c, err := parseColor(o.hex, o.alpha)
		if err != nil {
			return domain.Style{}, err
		}
		*o.dst = c
	}
	if f.OcclusionColor == "" && f.OcclusionAlpha != nil {
		if s.OcclusionColor == nil {
			s.OcclusionColor = color.White
		}
		n := color.NRGBAModel.Convert(s.OcclusionColor).(color.NRGBA)
		n.A = alphaByte(*f.OcclusionAlpha)
		s.OcclusionColor = n
	}

	if f.MapWindow != nil {
		s.MapWindow = f.MapWindow.toDomain()
	}
	if f.OcclusionBox != nil {
		s.OcclusionBox = f.OcclusionBox.toDomain()
	}
	if len(f.LineInsets) > 0 {
		s.LineInsets = make(map[domain.CountryCode]domain.Region, len(f.LineInsets))
		for code, r := range f.LineInsets {
			s.LineInsets[domain.CountryCode(code)] = r.toDomain()
		}
	}
	if f.PrecipInset != nil {
		s.PrecipInset = f.PrecipInset.toDomain()
	}
	if f.OverlayLabelYear != nil {
		s.OverlayLabelYear = *f.OverlayLabelYear
	}
	if len(f.OverlayLabelOffset) > 0 {
		s.OverlayLabelOffset = make(map[domain.CountryCode]float64, len(f.OverlayLabelOffset))
		for code, v := range f.OverlayLabelOffset {
			s.OverlayLabelOffset[domain.CountryCode(code)] = v
		}
	}
	if f.PanelLabelOffset != nil {
		s.PanelLabelOffset = *f.PanelLabelOffset
	}
	if f.MeanPrecision != nil {
		s.MeanPrecision = *f.MeanPrecision
	}
	if f.InsetTicks != nil {
		s.InsetTicks = *f.InsetTicks
	}
	return s, nil
}

func (w geoWindow) toDomain() domain.GeoWindow {
	return domain.GeoWindow{MinLon: w.MinLon, MaxLon: w.MaxLon, MinLat: w.MinLat, MaxLat: w.MaxLat}
}

func (r region) toDomain() domain.Region {
	return domain.Region{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}

// parseColor converts "#rrggbb" or "#rgb" into an NRGBA with the given alpha.
func parseColor(hex string, alpha uint8) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func occlusionAlpha(v *float64, current color.Color) uint8 {
	if v != nil {
		return alphaByte(*v)
	}
	if current == nil {
		return 0xff
	}
	return color.NRGBAModel.Convert(current).(color.NRGBA).A
}

func alphaByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	default:
		return uint8(v*255 + 0.5)
	}
}
