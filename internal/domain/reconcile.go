package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMisaligned means the precipitation and temperature tables do not share
	// identical (year, country) row ordering.
	ErrMisaligned = errors.New("tables are misaligned")

	// ErrInvalidObservation means a merged row carries an impossible value.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrDuplicateKey means two rows share the same (year, country) key.
	ErrDuplicateKey = errors.New("duplicate observation key")
)

type obsKey struct {
	year    int
	country CountryCode
}

// Merge combines precipitation and temperature tables into one frame. Both
// tables must list the same (year, country) keys in the same order; any
// difference aborts the merge because positional indexing would silently
// pair values from different rows.
func Merge(precip, temp Table) (Frame, error) {
	if len(precip) != len(temp) {
		return nil, fmt.Errorf("%w: %d precipitation rows, %d temperature rows", ErrMisaligned, len(precip), len(temp))
	}

	frame := make(Frame, len(precip))
	seen := make(map[obsKey]int, len(precip))
	for i := range precip {
		p, t := precip[i], temp[i]
		if p.Year != t.Year || p.Country != t.Country {
			return nil, fmt.Errorf("%w: row %d is (%d, %s) in precipitation but (%d, %s) in temperature",
				ErrMisaligned, i, p.Year, p.Country, t.Year, t.Country)
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.Value < 0 {
			return nil, fmt.Errorf("%w: row %d (%d, %s) precipitation %v", ErrInvalidObservation, i, p.Year, p.Country, p.Value)
		}
		if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) {
			return nil, fmt.Errorf("%w: row %d (%d, %s) temperature %v", ErrInvalidObservation, i, t.Year, t.Country, t.Value)
		}

		k := obsKey{year: p.Year, country: p.Country}
		if first, ok := seen[k]; ok {
			return nil, fmt.Errorf("%w: (%d, %s) at rows %d and %d", ErrDuplicateKey, p.Year, p.Country, first, i)
		}
		seen[k] = i

		frame[i] = Observation{
			Year:          p.Year,
			Country:       p.Country,
			Precipitation: p.Value,
			Temperature:   t.Value,
		}
	}
	return frame, nil
}
