package worldbank

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

const testTTL = 24 * time.Hour

func newTestFileCache(t *testing.T, inner domain.Source) (*FileCache, *observability.Metrics, string) {
	t.Helper()
	dir := t.TempDir()
	metrics := observability.NewMetricsForTesting()
	return NewFileCache(inner, dir, testTTL, metrics, testLogger()), metrics, dir
}

func TestFileCache_WritesThenReads(t *testing.T) {
	inner := &countingSource{records: sampleRecords()}
	fc, metrics, dir := newTestFileCache(t, inner)

	r1, err := fc.Fetch(context.Background(), domain.Temperature, domain.Yearly, "MEX")
	require.NoError(t, err)
	assert.FileExists(t, CachePath(dir, domain.Temperature, domain.Yearly, "MEX"))

	r2, err := fc.Fetch(context.Background(), domain.Temperature, domain.Yearly, "MEX")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("file", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("file", "miss")))
}

func TestFileCache_StaleEntryIsRefetched(t *testing.T) {
	inner := &countingSource{records: sampleRecords()}
	fc, _, _ := newTestFileCache(t, inner)

	_, err := fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)

	domain.SetClock(clockwork.NewFakeClockAt(time.Now().Add(2 * testTTL)))
	t.Cleanup(func() { domain.SetClock(nil) })

	_, err = fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestFileCache_CorruptFileIsRefetched(t *testing.T) {
	inner := &countingSource{records: sampleRecords()}
	fc, _, dir := newTestFileCache(t, inner)

	path := CachePath(dir, domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))

	records, err := fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, inner.calls)

	// The rewritten file now serves the next call.
	_, err = fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestFileCache_WrongCountryInFileIsRefetched(t *testing.T) {
	inner := &countingSource{records: sampleRecords()}
	fc, _, dir := newTestFileCache(t, inner)

	path := CachePath(dir, domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, WriteSeriesFile(path, []domain.Record{{Year: 1901, Country: "CAN", Value: 3}}))

	records, err := fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.NoError(t, err)
	assert.Equal(t, domain.CountryCode("USA"), records[0].Country)
	assert.Equal(t, 1, inner.calls)
}

func TestFileCache_InnerErrorPropagates(t *testing.T) {
	inner := &countingSource{err: errors.New("offline")}
	fc, _, _ := newTestFileCache(t, inner)

	_, err := fc.Fetch(context.Background(), domain.Precipitation, domain.Yearly, "USA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestSeriesCSV_RoundTrip(t *testing.T) {
	in := []domain.Record{
		{Year: 1901, Country: "BLZ", Value: 180.25},
		{Year: 1902, Country: "BLZ", Value: 0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "year,country_code,value\n"))

	out, err := ReadSeries(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadSeries_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"wrong header", "yr,code,v\n1901,USA,1\n"},
		{"bad year", "year,country_code,value\nabc,USA,1\n"},
		{"bad value", "year,country_code,value\n1901,USA,x\n"},
		{"short row", "year,country_code,value\n1901,USA\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeries(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}
