package basemap

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// builder accumulates shapes for a BaseMap.
type builder struct {
	shapes []domain.CountryShape
}

func (b *builder) add(g geom.Geom, code domain.CountryCode, window *geom.Bounds) error {
	if g == nil {
		return nil
	}
	poly, ok := g.(geom.Polygonal)
	if !ok {
		return fmt.Errorf("geometry %T is not polygonal", g)
	}
	var keep []geom.Polygon
	for _, p := range poly.Polygons() {
		if len(p) == 0 || len(p[0]) < 3 {
			continue
		}
		if window.Overlaps(p.Bounds()) {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	b.shapes = append(b.shapes, domain.CountryShape{Code: code, Polygons: keep})
	return nil
}

func (b *builder) baseMap() domain.BaseMap {
	return domain.BaseMap{Shapes: b.shapes}
}
