package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// Figure names, also used as output file stems.
const (
	FigurePanels    = "panels"
	FigureOverlay   = "overlay"
	FigurePrecip    = "precip"
	FigureComposite = "composite"
)

// ErrNoData is returned when a country selected for a figure has no rows.
var ErrNoData = errors.New("no rows")

// Plotter builds figures from a reconciled frame. It holds no canvas; every
// figure it returns is drawn later by the caller.
type Plotter struct {
	Frame  domain.Frame
	Index  domain.CountryIndex
	Style  domain.Style
	Smooth domain.SmoothOptions
}

// NewPlotter creates a plotter with the default LOWESS window.
func NewPlotter(frame domain.Frame, idx domain.CountryIndex, style domain.Style) *Plotter {
	return &Plotter{
		Frame:  frame,
		Index:  idx,
		Style:  style,
		Smooth: domain.DefaultSmoothOptions(),
	}
}

// countries pairs each indexed code with its palette entry and subset, in
// index order.
func (pl *Plotter) countries() ([]country, error) {
	out := make([]country, 0, len(pl.Index.Codes()))
	for _, code := range pl.Index.Codes() {
		entry, ok := pl.Style.Palette.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no palette entry", domain.ErrUnknownCountry, code)
		}
		subset := pl.Index.Subset(pl.Frame, code)
		if len(subset) == 0 {
			return nil, fmt.Errorf("%s: %w", code, ErrNoData)
		}
		out = append(out, country{entry: entry, subset: subset})
	}
	return out, nil
}

type country struct {
	entry  domain.PaletteEntry
	subset domain.Frame
}

// yearRange spans every year in the frame.
func (pl *Plotter) yearRange() domain.Range {
	r := domain.Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, obs := range pl.Frame {
		r.Min = math.Min(r.Min, float64(obs.Year))
		r.Max = math.Max(r.Max, float64(obs.Year))
	}
	return r
}

// temperatureLines returns the raw series line and its LOWESS curve.
func (pl *Plotter) temperatureLines(c country) (*plotter.Line, *plotter.Line, error) {
	years := c.subset.Years()
	temps := c.subset.Temperatures()

	raw, err := plotter.NewLine(xys(years, temps))
	if err != nil {
		return nil, nil, fmt.Errorf("%s temperature line: %w", c.entry.Code, err)
	}
	raw.LineStyle.Color = c.entry.Color
	raw.LineStyle.Width = vg.Points(0.75)

	fitted, err := domain.Lowess(years, temps, pl.Smooth)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", c.entry.Code, err)
	}
	trend, err := plotter.NewLine(xys(years, fitted))
	if err != nil {
		return nil, nil, fmt.Errorf("%s trend line: %w", c.entry.Code, err)
	}
	trend.LineStyle.Color = c.entry.Color
	trend.LineStyle.Width = vg.Points(2)
	return raw, trend, nil
}

// textLabel places txt with its bottom-left corner at (x, y).
func textLabel(x, y float64, txt string, c country, size vg.Length) (*plotter.Labels, error) {
	l, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: x, Y: y}},
		Labels: []string{txt},
	})
	if err != nil {
		return nil, fmt.Errorf("%s label: %w", c.entry.Code, err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Color = c.entry.Color
		if size > 0 {
			l.TextStyle[i].Font.Size = size
		}
	}
	return l, nil
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// shrinkFonts sets every tick and axis label on p to size.
func shrinkFonts(p *plot.Plot, size vg.Length) {
	p.X.Tick.Label.Font.Size = size
	p.Y.Tick.Label.Font.Size = size
	p.X.Label.TextStyle.Font.Size = size
	p.Y.Label.TextStyle.Font.Size = size
}
