package domain

import (
	"errors"
	"fmt"
)

// PolygonShape is a closed area under a precipitation series: the forward
// (year, precipitation) run followed by the reversed years along zero.
type PolygonShape struct {
	X []float64
	Y []float64
}

// NewPolygonShape builds the shape for one country's subset.
func NewPolygonShape(subset Frame) PolygonShape {
	n := len(subset)
	s := PolygonShape{
		X: make([]float64, 2*n),
		Y: make([]float64, 2*n),
	}
	for i, obs := range subset {
		s.X[i] = float64(obs.Year)
		s.Y[i] = obs.Precipitation
		s.X[2*n-1-i] = float64(obs.Year)
		// s.Y tail stays zero.
	}
	return s
}

// Len returns the number of vertices.
func (s PolygonShape) Len() int { return len(s.X) }

// XY returns vertex i. It satisfies gonum's plotter.XYer.
func (s PolygonShape) XY(i int) (float64, float64) { return s.X[i], s.Y[i] }

// Validate checks equal even lengths, a mirrored x tail and a zero baseline.
func (s PolygonShape) Validate() error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("polygon has %d x and %d y coordinates", len(s.X), len(s.Y))
	}
	if len(s.X)%2 != 0 {
		return fmt.Errorf("polygon has odd length %d", len(s.X))
	}
	n := len(s.X) / 2
	for i := 0; i < n; i++ {
		if s.X[i] != s.X[2*n-1-i] {
			return fmt.Errorf("polygon tail does not mirror head at %d", i)
		}
		if s.Y[n+i] != 0 {
			return errors.New("polygon baseline is not zero")
		}
	}
	return nil
}
