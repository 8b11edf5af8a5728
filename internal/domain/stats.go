package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MeanPrecipitation returns the grouped mean precipitation per indexed country.
// Countries with no rows are omitted.
func MeanPrecipitation(frame Frame, idx CountryIndex) map[CountryCode]float64 {
	out := make(map[CountryCode]float64, len(idx.codes))
	for _, c := range idx.codes {
		sub := idx.Subset(frame, c)
		if len(sub) == 0 {
			continue
		}
		out[c] = stat.Mean(sub.Precipitations(), nil)
	}
	return out
}

// MeanTemperature returns the mean temperature of a subset, 0 when empty.
func MeanTemperature(subset Frame) float64 {
	if len(subset) == 0 {
		return 0
	}
	return stat.Mean(subset.Temperatures(), nil)
}

// RankByMeanPrecip orders the indexed countries by descending mean
// precipitation, so that taller polygons are drawn first. Ties keep index
// order. Countries with no rows are dropped.
func RankByMeanPrecip(frame Frame, idx CountryIndex) []CountryCode {
	means := MeanPrecipitation(frame, idx)
	ranked := make([]CountryCode, 0, len(means))
	for _, c := range idx.codes {
		if _, ok := means[c]; ok {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return means[ranked[i]] > means[ranked[j]]
	})
	return ranked
}

// PeakTemperature returns the row with the highest temperature. Ties resolve
// to the lowest year. Returns false for an empty subset.
func PeakTemperature(subset Frame) (Observation, bool) {
	if len(subset) == 0 {
		return Observation{}, false
	}
	best := subset[0]
	for _, obs := range subset[1:] {
		if obs.Temperature > best.Temperature ||
			(obs.Temperature == best.Temperature && obs.Year < best.Year) {
			best = obs
		}
	}
	return best, true
}
