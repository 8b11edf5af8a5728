package render

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// panelOptions controls one temperature panel.
type panelOptions struct {
	position int // 1-based; picks the y-axis side
	xAxis    bool
	fontSize vg.Length // 0 keeps the plot defaults
	years    [2]float64
}

// panelPlot draws one country's temperature line, LOWESS curve and name
// label placed at the first year, PanelLabelOffset above the country mean.
func (pl *Plotter) panelPlot(c country, opts panelOptions) (*plot.Plot, error) {
	p := plot.New()
	if opts.fontSize > 0 {
		shrinkFonts(p, opts.fontSize)
	}
	tickStyle := p.Y.Tick.Label

	raw, trend, err := pl.temperatureLines(c)
	if err != nil {
		return nil, err
	}
	mean := meanTemperature(c)
	label, err := textLabel(float64(c.subset[0].Year), mean+pl.Style.PanelLabelOffset, c.entry.Name, c, opts.fontSize)
	if err != nil {
		return nil, err
	}
	p.Add(raw, trend, label, newSideAxis(sideFor(opts.position), tickStyle))

	p.HideY()
	p.Y.Padding = 0
	p.X.Min, p.X.Max = opts.years[0], opts.years[1]
	if opts.xAxis {
		p.X.Tick.Label.Rotation = math.Pi / 2
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	} else {
		p.HideX()
	}
	return p, nil
}

// Panels stacks one temperature panel per country, top to bottom in index
// order. Only the bottom panel carries the shared year axis.
func (pl *Plotter) Panels() (Figure, error) {
	cs, err := pl.countries()
	if err != nil {
		return Figure{}, err
	}
	yr := pl.yearRange()

	grid := &panelGrid{plots: make([][]*plot.Plot, len(cs))}
	layers := make([]Layer, len(cs))
	for i, c := range cs {
		p, err := pl.panelPlot(c, panelOptions{
			position: i + 1,
			xAxis:    i == len(cs)-1,
			years:    [2]float64{yr.Min, yr.Max},
		})
		if err != nil {
			return Figure{}, err
		}
		grid.plots[i] = []*plot.Plot{p}
		layers[i] = panelLayer{grid: grid, row: i}
	}
	return Figure{Name: FigurePanels, Layers: layers}, nil
}

// panelGrid is shared by the panel layers so that every row is laid out
// against the same aligned tiles.
type panelGrid struct {
	plots [][]*plot.Plot
}

func (g *panelGrid) canvases(dc draw.Canvas) [][]draw.Canvas {
	tiles := draw.Tiles{
		Rows:      len(g.plots),
		Cols:      1,
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   axisMargin,
		PadRight:  axisMargin,
		PadY:      vg.Points(4),
	}
	return plot.Align(g.plots, tiles, dc)
}

type panelLayer struct {
	grid *panelGrid
	row  int
}

func (panelLayer) Kind() LayerKind { return KindPanel }

func (l panelLayer) Draw(dc draw.Canvas) error {
	l.grid.plots[l.row][0].Draw(l.grid.canvases(dc)[l.row][0])
	return nil
}

// axisSide reports which edge the row's y axis is on.
func (l panelLayer) axisSide() side {
	return sideFor(l.row + 1)
}
