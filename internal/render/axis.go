package render

import (
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// side is where a panel's y axis is drawn.
type side int

const (
	sideLeft side = iota
	sideRight
)

// sideFor alternates axes by 1-based panel position: odd left, even right.
func sideFor(position int) side {
	if position%2 == 0 {
		return sideRight
	}
	return sideLeft
}

const (
	axisMargin = vg.Length(40)
	tickLength = vg.Length(4)
	labelGap   = vg.Length(2)
)

// sideAxis is a plotter that draws a y axis on either edge of the data area.
// gonum/plot only places y axes on the left, so panels hide theirs and add
// one of these instead. Tick labels land in the margin outside the data
// canvas, which the caller must leave free.
type sideAxis struct {
	side  side
	line  draw.LineStyle
	label draw.TextStyle
}

func newSideAxis(s side, label draw.TextStyle) sideAxis {
	return sideAxis{
		side:  s,
		line:  draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)},
		label: label,
	}
}

func (a sideAxis) Plot(c draw.Canvas, plt *plot.Plot) {
	_, trY := plt.Transforms(&c)

	x, dir := c.Min.X, vg.Length(-1)
	align := draw.XRight
	if a.side == sideRight {
		x, dir = c.Max.X, 1
		align = draw.XLeft
	}
	c.StrokeLine2(a.line, x, c.Min.Y, x, c.Max.Y)

	sty := a.label
	sty.XAlign = align
	sty.YAlign = draw.YCenter
	for _, t := range (plot.DefaultTicks{}).Ticks(plt.Y.Min, plt.Y.Max) {
		if t.IsMinor() || t.Value < plt.Y.Min || t.Value > plt.Y.Max {
			continue
		}
		y := trY(t.Value)
		c.StrokeLine2(a.line, x, y, x+dir*tickLength, y)
		c.FillText(sty, vg.Point{X: x + dir*(tickLength+labelGap), Y: y}, t.Label)
	}
}

// fixedTicks places n evenly spaced labelled ticks across the axis range.
type fixedTicks struct {
	n int
}

func (t fixedTicks) Ticks(min, max float64) []plot.Tick {
	if t.n <= 0 {
		return nil
	}
	if t.n == 1 || min == max {
		return []plot.Tick{{Value: min, Label: yearLabel(min)}}
	}
	ticks := make([]plot.Tick, t.n)
	step := (max - min) / float64(t.n-1)
	for i := range ticks {
		v := min + float64(i)*step
		ticks[i] = plot.Tick{Value: v, Label: yearLabel(v)}
	}
	return ticks
}

func yearLabel(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// marginLabel is one annotation placed right of the data area at a data y.
type marginLabel struct {
	Y     float64
	Text  string
	Color color.Color
}

// marginLabels draws annotations in the right margin, outside the data
// canvas.
type marginLabels struct {
	labels []marginLabel
	style  draw.TextStyle
}

func (m marginLabels) Plot(c draw.Canvas, plt *plot.Plot) {
	_, trY := plt.Transforms(&c)
	for _, l := range m.labels {
		sty := m.style
		sty.Color = l.Color
		sty.XAlign = draw.XLeft
		sty.YAlign = draw.YCenter
		c.FillText(sty, vg.Point{X: c.Max.X + labelGap*2, Y: trY(l.Y)}, l.Text)
	}
}
