package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// ErrEmptyBaseMap is returned when the composite has no outlines to draw.
var ErrEmptyBaseMap = errors.New("composite: empty base map")

const insetFontSize = vg.Length(6)

// Composite assembles the map figure: the base map, one fill per country, a
// translucent occlusion box, a line inset per country with its peak marked,
// then the precipitation inset. Layers draw in exactly that order.
func (pl *Plotter) Composite(m domain.BaseMap) (Figure, error) {
	if err := pl.Style.Validate(); err != nil {
		return Figure{}, err
	}
	if len(m.Shapes) == 0 {
		return Figure{}, ErrEmptyBaseMap
	}
	cs, err := pl.countries()
	if err != nil {
		return Figure{}, err
	}
	s := pl.Style

	var layers []Layer

	base, err := pl.mapPlot(s.MapBackground)
	if err != nil {
		return Figure{}, err
	}
	for _, shape := range m.Shapes {
		if err := addOutline(base, shape.Polygons, s.MapLand, s.BorderColor); err != nil {
			return Figure{}, fmt.Errorf("base map %s: %w", shape.Code, err)
		}
	}
	pl.fixWindow(base)
	layers = append(layers, plotLayer{kind: KindBaseMap, plot: base})

	for _, c := range cs {
		outline := m.Shape(c.entry.Code)
		if len(outline) == 0 {
			return Figure{}, fmt.Errorf("base map has no outline for %s", c.entry.Code)
		}
		fill, err := pl.mapPlot(color.Transparent)
		if err != nil {
			return Figure{}, err
		}
		if err := addOutline(fill, outline, c.entry.Color, s.BorderColor); err != nil {
			return Figure{}, fmt.Errorf("fill %s: %w", c.entry.Code, err)
		}
		pl.fixWindow(fill)
		layers = append(layers, plotLayer{kind: KindCountryFill, plot: fill})
	}

	occ, err := pl.mapPlot(color.Transparent)
	if err != nil {
		return Figure{}, err
	}
	box := s.OcclusionBox
	square, err := plotter.NewPolygon(plotter.XYs{
		{X: box.MinLon, Y: box.MinLat},
		{X: box.MaxLon, Y: box.MinLat},
		{X: box.MaxLon, Y: box.MaxLat},
		{X: box.MinLon, Y: box.MaxLat},
	})
	if err != nil {
		return Figure{}, fmt.Errorf("occlusion box: %w", err)
	}
	square.Color = s.OcclusionColor
	square.LineStyle.Width = 0
	occ.Add(square)
	pl.fixWindow(occ)
	layers = append(layers, plotLayer{kind: KindOcclusion, plot: occ})

	yr := pl.yearRange()
	for _, c := range cs {
		p, err := pl.panelPlot(c, panelOptions{
			position: 1,
			xAxis:    true,
			fontSize: insetFontSize,
			years:    [2]float64{yr.Min, yr.Max},
		})
		if err != nil {
			return Figure{}, err
		}
		if err := pl.markPeak(p, c); err != nil {
			return Figure{}, err
		}
		layers = append(layers, insetLayer{
			kind:   KindLineInset,
			region: s.LineInsets[c.entry.Code],
			plot:   p,
			left:   axisMargin * 0.7,
		})
	}

	chart, err := pl.precipPlot(PrecipOptions{Ticks: s.InsetTicks, FontSize: insetFontSize})
	if err != nil {
		return Figure{}, err
	}
	layers = append(layers, insetLayer{
		kind:   KindPrecipInset,
		region: s.PrecipInset,
		plot:   chart.plot,
		right:  meanMargin * 0.7,
	})

	return Figure{Name: FigureComposite, Layers: layers}, nil
}

// markPeak adds a highlight glyph and value label at the hottest year.
func (pl *Plotter) markPeak(p *plot.Plot, c country) error {
	peak, ok := domain.PeakTemperature(c.subset)
	if !ok {
		return fmt.Errorf("%s: %w", c.entry.Code, ErrNoData)
	}
	pt := plotter.XYs{{X: float64(peak.Year), Y: peak.Temperature}}
	marker, err := plotter.NewScatter(pt)
	if err != nil {
		return fmt.Errorf("%s peak: %w", c.entry.Code, err)
	}
	marker.GlyphStyle.Shape = draw.CircleGlyph{}
	marker.GlyphStyle.Color = pl.Style.HighlightColor
	marker.GlyphStyle.Radius = vg.Points(2.5)

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    pt,
		Labels: []string{fmt.Sprintf("%d: %.1f", peak.Year, peak.Temperature)},
	})
	if err != nil {
		return fmt.Errorf("%s peak label: %w", c.entry.Code, err)
	}
	for i := range label.TextStyle {
		label.TextStyle[i].Color = pl.Style.HighlightColor
		label.TextStyle[i].Font.Size = insetFontSize
	}
	label.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}
	p.Add(marker, label)
	return nil
}

// mapPlot is an axis-free plot whose data area is the whole canvas, so all
// map layers share one lon/lat transform.
func (pl *Plotter) mapPlot(background color.Color) (*plot.Plot, error) {
	if err := pl.Style.MapWindow.Validate(); err != nil {
		return nil, err
	}
	p := plot.New()
	p.BackgroundColor = background
	p.HideAxes()
	p.X.Padding = 0
	p.Y.Padding = 0
	return p, nil
}

// fixWindow pins the lon/lat window. It runs after Add, which would
// otherwise widen the ranges to the shapes' extents.
func (pl *Plotter) fixWindow(p *plot.Plot) {
	w := pl.Style.MapWindow
	p.X.Min, p.X.Max = w.MinLon, w.MaxLon
	p.Y.Min, p.Y.Max = w.MinLat, w.MaxLat
}

func addOutline(p *plot.Plot, polys []geom.Polygon, fill, border color.Color) error {
	for _, poly := range polys {
		rings := make([]plotter.XYer, 0, len(poly))
		for _, r := range poly {
			if len(r) < 3 {
				continue
			}
			rings = append(rings, ring(r))
		}
		if len(rings) == 0 {
			continue
		}
		shape, err := plotter.NewPolygon(rings...)
		if err != nil {
			return err
		}
		shape.Color = fill
		shape.LineStyle.Color = border
		shape.LineStyle.Width = vg.Points(0.3)
		p.Add(shape)
	}
	return nil
}

// ring adapts a geom ring to plotter.XYer.
type ring []geom.Point

func (r ring) Len() int                    { return len(r) }
func (r ring) XY(i int) (float64, float64) { return r[i].X, r[i].Y }

// insetLayer draws a plot into a normalized sub-rectangle of the canvas on
// an opaque white backing, reserving left or right margins for axis labels
// drawn outside the data area.
type insetLayer struct {
	kind   LayerKind
	region domain.Region
	plot   *plot.Plot
	left   vg.Length
	right  vg.Length
}

func (l insetLayer) Kind() LayerKind { return l.kind }

// Region is where the inset sits on the canvas.
func (l insetLayer) Region() domain.Region { return l.region }

func (l insetLayer) Draw(dc draw.Canvas) error {
	if err := l.region.Validate(); err != nil {
		return err
	}
	c := regionCanvas(dc, l.region)
	c.SetColor(color.White)
	c.Fill(c.Rectangle.Path())
	l.plot.Draw(draw.Crop(c, l.left, -l.right, 0, 0))
	return nil
}
