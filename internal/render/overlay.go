package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// Overlay draws every country's temperature line and LOWESS curve in one
// coordinate space. Axis ranges come from the whole frame; labels sit at
// OverlayLabelYear, clamped into the year range, with a per-country offset
// above the country mean.
func (pl *Plotter) Overlay() (Figure, error) {
	cs, err := pl.countries()
	if err != nil {
		return Figure{}, err
	}

	yr := pl.yearRange()
	labelYear := math.Min(math.Max(pl.Style.OverlayLabelYear, yr.Min), yr.Max)

	p := plot.New()
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Temperature (°C)"
	for _, c := range cs {
		raw, trend, err := pl.temperatureLines(c)
		if err != nil {
			return Figure{}, err
		}
		offset, ok := pl.Style.OverlayLabelOffset[c.entry.Code]
		if !ok {
			return Figure{}, fmt.Errorf("overlay: no label offset for %s", c.entry.Code)
		}
		label, err := textLabel(labelYear, meanTemperature(c)+offset, c.entry.Name, c, 0)
		if err != nil {
			return Figure{}, err
		}
		p.Add(raw, trend, label)
	}

	temp := domain.ComputeRanges(pl.Frame).Temperature
	p.X.Min, p.X.Max = yr.Min, yr.Max
	p.Y.Min, p.Y.Max = temp.Min, temp.Max

	return Figure{Name: FigureOverlay, Layers: []Layer{plotLayer{kind: KindOverlay, plot: p}}}, nil
}

func meanTemperature(c country) float64 {
	return domain.MeanTemperature(c.subset)
}

// plotLayer draws a single plot over the whole canvas.
type plotLayer struct {
	kind LayerKind
	plot *plot.Plot
}

func (l plotLayer) Kind() LayerKind { return l.kind }

func (l plotLayer) Draw(dc draw.Canvas) error {
	l.plot.Draw(dc)
	return nil
}
