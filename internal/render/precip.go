package render

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// PrecipOptions selects between the standalone and the inset precipitation
// chart.
type PrecipOptions struct {
	// Ticks is the number of labelled year ticks. Zero keeps the dense
	// default ticker.
	Ticks int
	// FontSize overrides tick and label sizes when positive.
	FontSize vg.Length
}

const meanMargin = vg.Length(36)

// precipChart is a built precipitation plot plus the order its polygons are
// drawn in.
type precipChart struct {
	plot  *plot.Plot
	order []domain.CountryCode
}

// precipPlot layers one filled PolygonShape per country, tallest mean first,
// and annotates each mean in the right margin.
func (pl *Plotter) precipPlot(opts PrecipOptions) (precipChart, error) {
	if _, err := pl.countries(); err != nil {
		return precipChart{}, err
	}
	ranked := domain.RankByMeanPrecip(pl.Frame, pl.Index)
	means := domain.MeanPrecipitation(pl.Frame, pl.Index)

	p := plot.New()
	if opts.FontSize > 0 {
		shrinkFonts(p, opts.FontSize)
	}
	p.Y.Label.Text = "Precipitation (mm)"
	annotations := marginLabels{style: p.Y.Tick.Label}

	for _, code := range ranked {
		entry, _ := pl.Style.Palette.Lookup(code)
		shape := domain.NewPolygonShape(pl.Index.Subset(pl.Frame, code))
		if err := shape.Validate(); err != nil {
			return precipChart{}, fmt.Errorf("%s: %w", code, err)
		}
		poly, err := plotter.NewPolygon(shape)
		if err != nil {
			return precipChart{}, fmt.Errorf("%s polygon: %w", code, err)
		}
		poly.Color = entry.Color
		poly.LineStyle.Color = pl.Style.BorderColor
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)

		annotations.labels = append(annotations.labels, marginLabel{
			Y:     means[code],
			Text:  strconv.FormatFloat(means[code], 'f', pl.Style.MeanPrecision, 64),
			Color: entry.Color,
		})
	}
	p.Add(annotations)

	yr := pl.yearRange()
	p.X.Min, p.X.Max = yr.Min, yr.Max
	p.Y.Min = 0
	if opts.Ticks > 0 {
		p.X.Tick.Marker = fixedTicks{n: opts.Ticks}
	}
	return precipChart{plot: p, order: ranked}, nil
}

// Precip is the standalone precipitation chart.
func (pl *Plotter) Precip(opts PrecipOptions) (Figure, error) {
	chart, err := pl.precipPlot(opts)
	if err != nil {
		return Figure{}, err
	}
	return Figure{Name: FigurePrecip, Layers: []Layer{precipLayer{chart: chart}}}, nil
}

type precipLayer struct {
	chart precipChart
}

func (precipLayer) Kind() LayerKind { return KindPrecip }

func (l precipLayer) Draw(dc draw.Canvas) error {
	l.chart.plot.Draw(draw.Crop(dc, 0, -meanMargin, 0, 0))
	return nil
}
