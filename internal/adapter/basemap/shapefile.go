// Package basemap loads country outlines for the composite map figure.
package basemap

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// LoadShapefile reads every polygonal record of a lon/lat shapefile whose
// bounding box overlaps window. codeField names the attribute column holding
// the ISO 3166-1 alpha-3 code; records without a usable code are kept as
// unlabelled land.
func LoadShapefile(path, codeField string, window domain.GeoWindow) (domain.BaseMap, error) {
	if err := window.Validate(); err != nil {
		return domain.BaseMap{}, err
	}
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return domain.BaseMap{}, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer dec.Close()

	bounds := windowBounds(window)
	var b builder
	for row := 0; ; row++ {
		g, fields, more := dec.DecodeRowFields(codeField)
		if !more {
			break
		}
		code, ok := fields[codeField]
		if !ok {
			return domain.BaseMap{}, fmt.Errorf("shapefile %s: missing attribute column %s", path, codeField)
		}
		if err := b.add(g, normalizeCode(code), bounds); err != nil {
			return domain.BaseMap{}, fmt.Errorf("shapefile %s record %d: %w", path, row, err)
		}
	}
	if err := dec.Error(); err != nil {
		return domain.BaseMap{}, fmt.Errorf("decode shapefile %s: %w", path, err)
	}
	return b.baseMap(), nil
}

func windowBounds(w domain.GeoWindow) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: w.MinLon, Y: w.MinLat},
		Max: geom.Point{X: w.MaxLon, Y: w.MaxLat},
	}
}

// Natural Earth marks disputed or unassigned codes as -99.
func normalizeCode(s string) domain.CountryCode {
	s = strings.ToUpper(strings.TrimSpace(strings.Trim(s, "\x00")))
	if s == "" || s == "-99" {
		return ""
	}
	return domain.CountryCode(s)
}
