package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownCountry means a frame row belongs to a country outside the index.
var ErrUnknownCountry = errors.New("unknown country code")

// CountryIndex maps each country code to the ordered row positions of that
// country in a frame. It does not own the frame; rebuild it if the frame
// changes.
type CountryIndex struct {
	codes []CountryCode
	rows  map[CountryCode][]int
}

// BuildIndex computes the row positions for every code. Every row must belong
// to one of codes, so the resulting lists partition the frame.
func BuildIndex(frame Frame, codes []CountryCode) (CountryIndex, error) {
	idx := CountryIndex{
		codes: append([]CountryCode(nil), codes...),
		rows:  make(map[CountryCode][]int, len(codes)),
	}
	for _, c := range codes {
		if _, dup := idx.rows[c]; dup {
			return CountryIndex{}, fmt.Errorf("country %s listed twice", c)
		}
		idx.rows[c] = []int{}
	}
	for i, obs := range frame {
		if _, ok := idx.rows[obs.Country]; !ok {
			return CountryIndex{}, fmt.Errorf("%w: row %d has %q", ErrUnknownCountry, i, obs.Country)
		}
		idx.rows[obs.Country] = append(idx.rows[obs.Country], i)
	}
	return idx, nil
}

// Codes returns the indexed country codes in index order.
func (x CountryIndex) Codes() []CountryCode {
	return append([]CountryCode(nil), x.codes...)
}

// Rows returns the row positions for code, nil if the code is not indexed.
func (x CountryIndex) Rows(code CountryCode) []int {
	return x.rows[code]
}

// Subset returns the observations for code, in frame order.
func (x CountryIndex) Subset(frame Frame, code CountryCode) Frame {
	rows := x.rows[code]
	out := make(Frame, len(rows))
	for i, r := range rows {
		out[i] = frame[r]
	}
	return out
}

// Range is a closed [Min, Max] interval.
type Range struct {
	Min float64
	Max float64
}

// Ranges holds the global extents used as candidate axis bounds.
type Ranges struct {
	Temperature   Range
	Precipitation Range
}

// ComputeRanges scans the frame once. An empty frame yields zero ranges.
func ComputeRanges(frame Frame) Ranges {
	if len(frame) == 0 {
		return Ranges{}
	}
	r := Ranges{
		Temperature:   Range{Min: math.Inf(1), Max: math.Inf(-1)},
		Precipitation: Range{Min: math.Inf(1), Max: math.Inf(-1)},
	}
	for _, obs := range frame {
		r.Temperature.Min = math.Min(r.Temperature.Min, obs.Temperature)
		r.Temperature.Max = math.Max(r.Temperature.Max, obs.Temperature)
		r.Precipitation.Min = math.Min(r.Precipitation.Min, obs.Precipitation)
		r.Precipitation.Max = math.Max(r.Precipitation.Max, obs.Precipitation)
	}
	return r
}

// Years returns the years of a subset as float64s, ready for plotting.
func (f Frame) Years() []float64 {
	out := make([]float64, len(f))
	for i, obs := range f {
		out[i] = float64(obs.Year)
	}
	return out
}

// Temperatures returns the temperature column.
func (f Frame) Temperatures() []float64 {
	out := make([]float64, len(f))
	for i, obs := range f {
		out[i] = obs.Temperature
	}
	return out
}

// Precipitations returns the precipitation column.
func (f Frame) Precipitations() []float64 {
	out := make([]float64, len(f))
	for i, obs := range f {
		out[i] = obs.Precipitation
	}
	return out
}
