package domain

import "github.com/ctessum/geom"

// CountryShape is the outline of one country in lon/lat degrees.
type CountryShape struct {
	Code     CountryCode
	Polygons []geom.Polygon
}

// BaseMap is the set of country outlines drawn under the composite figure.
type BaseMap struct {
	Shapes []CountryShape
}

// Shape returns every outline tagged with code. Multi-part countries may be
// stored as several shapes.
func (m BaseMap) Shape(code CountryCode) []geom.Polygon {
	var out []geom.Polygon
	for _, s := range m.Shapes {
		if s.Code == code {
			out = append(out, s.Polygons...)
		}
	}
	return out
}
