package domain

import (
	"context"
	"fmt"
)

// Variable identifies a climate series.
type Variable string

const (
	Precipitation Variable = "pr"
	Temperature   Variable = "tas"
)

// Resolution is the temporal aggregation requested from the API.
type Resolution string

const (
	Yearly  Resolution = "year"
	Decadal Resolution = "decade"
)

// ParseResolution validates a resolution string.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case Yearly, Decadal:
		return Resolution(s), nil
	default:
		return "", fmt.Errorf("unsupported time resolution %q", s)
	}
}

// CountryCode is an ISO 3166-1 alpha-3 country code, e.g. "USA".
type CountryCode string

// Record is one fetched (year, country, value) row.
type Record struct {
	Year    int
	Country CountryCode
	Value   float64
}

// Table is an ordered list of records for a single variable.
type Table []Record

// Observation is one merged row. Uniquely keyed by (Year, Country).
type Observation struct {
	Year          int
	Country       CountryCode
	Precipitation float64 // mm
	Temperature   float64 // °C
}

// Frame is the merged, read-only table every figure is drawn from.
type Frame []Observation

// Source fetches a single country's series for one variable.
type Source interface {
	Fetch(ctx context.Context, variable Variable, resolution Resolution, country CountryCode) ([]Record, error)
}
