// Package render turns a reconciled frame into figures. A figure is an
// explicit ordered list of layers drawn onto one shared canvas; each layer
// composes over whatever the previous layers left behind.
package render

import (
	"fmt"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// LayerKind identifies what a layer draws. It doubles as the metrics label.
type LayerKind string

const (
	KindPanel       LayerKind = "panel"
	KindOverlay     LayerKind = "overlay"
	KindPrecip      LayerKind = "precip"
	KindBaseMap     LayerKind = "base_map"
	KindCountryFill LayerKind = "country_fill"
	KindOcclusion   LayerKind = "occlusion"
	KindLineInset   LayerKind = "line_inset"
	KindPrecipInset LayerKind = "precip_inset"
)

// Layer is one drawing pass.
type Layer interface {
	Kind() LayerKind
	Draw(dc draw.Canvas) error
}

// Figure is a named, ordered set of layers.
type Figure struct {
	Name   string
	Layers []Layer
}

// Draw runs every layer in order on dc. The first failing layer aborts the
// figure; nothing is retried.
func (f Figure) Draw(dc draw.Canvas) error {
	for i, l := range f.Layers {
		if err := l.Draw(dc); err != nil {
			return fmt.Errorf("%s: layer %d (%s): %w", f.Name, i, l.Kind(), err)
		}
	}
	return nil
}

// Count returns how many layers of kind the figure holds.
func (f Figure) Count(kind LayerKind) int {
	n := 0
	for _, l := range f.Layers {
		if l.Kind() == kind {
			n++
		}
	}
	return n
}

// regionCanvas maps a normalized region onto dc. Region coordinates grow
// right and up from the bottom-left corner, like vg.
func regionCanvas(dc draw.Canvas, r domain.Region) draw.Canvas {
	w := dc.Max.X - dc.Min.X
	h := dc.Max.Y - dc.Min.Y
	return draw.Canvas{
		Canvas: dc.Canvas,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: dc.Min.X + vg.Length(r.X0)*w, Y: dc.Min.Y + vg.Length(r.Y0)*h},
			Max: vg.Point{X: dc.Min.X + vg.Length(r.X1)*w, Y: dc.Min.Y + vg.Length(r.Y1)*h},
		},
	}
}
