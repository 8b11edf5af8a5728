package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPrecipitation(t *testing.T) {
	frame := syntheticFrame(t)
	idx, err := BuildIndex(frame, testCodes)
	require.NoError(t, err)

	means := MeanPrecipitation(frame, idx)
	assert.InDelta(t, 62.0, means["USA"], 1e-9)
	assert.InDelta(t, 67.0, means["MEX"], 1e-9)
	assert.InDelta(t, 47.0, means["CAN"], 1e-9)
	assert.InDelta(t, 182.0, means["BLZ"], 1e-9)
}

func TestRankByMeanPrecip(t *testing.T) {
	frame := syntheticFrame(t)
	idx, err := BuildIndex(frame, testCodes)
	require.NoError(t, err)

	ranked := RankByMeanPrecip(frame, idx)
	require.Equal(t, []CountryCode{"BLZ", "MEX", "USA", "CAN"}, ranked)

	// Recomputed means must be non-increasing in draw order.
	means := MeanPrecipitation(frame, idx)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, means[ranked[i-1]], means[ranked[i]])
	}
}

func TestRankByMeanPrecip_TiesKeepIndexOrder(t *testing.T) {
	frame := Frame{
		{Year: 2000, Country: "CAN", Precipitation: 10},
		{Year: 2000, Country: "USA", Precipitation: 10},
		{Year: 2000, Country: "MEX", Precipitation: 30},
	}
	idx, err := BuildIndex(frame, []CountryCode{"USA", "CAN", "MEX", "BLZ"})
	require.NoError(t, err)

	assert.Equal(t, []CountryCode{"MEX", "USA", "CAN"}, RankByMeanPrecip(frame, idx))
}

func TestPeakTemperature(t *testing.T) {
	t.Run("unique maximum", func(t *testing.T) {
		subset := Frame{
			{Year: 2000, Temperature: 1.5},
			{Year: 2001, Temperature: 3.25},
			{Year: 2002, Temperature: 2.0},
			{Year: 2003, Temperature: -1},
			{Year: 2004, Temperature: 3.0},
		}
		peak, ok := PeakTemperature(subset)
		require.True(t, ok)
		assert.Equal(t, 2001, peak.Year)
		assert.Equal(t, 3.25, peak.Temperature)
	})

	t.Run("ties resolve to lowest year", func(t *testing.T) {
		subset := Frame{
			{Year: 2003, Temperature: 5},
			{Year: 2001, Temperature: 5},
			{Year: 2002, Temperature: 4},
		}
		peak, ok := PeakTemperature(subset)
		require.True(t, ok)
		assert.Equal(t, 2001, peak.Year)
	})

	t.Run("empty subset", func(t *testing.T) {
		_, ok := PeakTemperature(nil)
		assert.False(t, ok)
	})
}

func TestMeanTemperature(t *testing.T) {
	assert.Equal(t, 0.0, MeanTemperature(nil))
	assert.InDelta(t, 2.0, MeanTemperature(Frame{{Temperature: 1}, {Temperature: 3}}), 1e-12)
}
