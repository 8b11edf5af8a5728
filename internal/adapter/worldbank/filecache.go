package worldbank

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

var seriesHeader = []string{"year", "country_code", "value"}

// FileCache keeps fetched series as CSV flat files, one per
// (variable, resolution, country). Files older than ttl are refetched.
type FileCache struct {
	inner   domain.Source
	dir     string
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFileCache creates a flat-file cache decorator rooted at dir.
func NewFileCache(inner domain.Source, dir string, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *FileCache {
	return &FileCache{
		inner:   inner,
		dir:     dir,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// CachePath returns the flat-file location for a series.
func CachePath(dir string, variable domain.Variable, resolution domain.Resolution, country domain.CountryCode) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.csv", variable, resolution, country))
}

func (c *FileCache) Fetch(ctx context.Context, variable domain.Variable, resolution domain.Resolution, country domain.CountryCode) ([]domain.Record, error) {
	path := CachePath(c.dir, variable, resolution, country)

	records, err := c.readFresh(path, country)
	switch {
	case err == nil:
		c.metrics.FetchCache.WithLabelValues("file", "hit").Inc()
		return records, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, errStale):
	default:
		c.logger.Warn("ignoring unreadable cache file", "path", path, "error", err)
	}
	c.metrics.FetchCache.WithLabelValues("file", "miss").Inc()

	records, err = c.inner.Fetch(ctx, variable, resolution, country)
	if err != nil {
		return nil, err
	}
	if err := WriteSeriesFile(path, records); err != nil {
		// The run can proceed without the cache.
		c.logger.Warn("cache write failed", "path", path, "error", err)
	}
	return records, nil
}

var errStale = errors.New("cache entry is stale")

func (c *FileCache) readFresh(path string, country domain.CountryCode) ([]domain.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if domain.Now().Sub(info.ModTime()) > c.ttl {
		return nil, errStale
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadSeries(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no rows", path)
	}
	for i, r := range records {
		if r.Country != country {
			return nil, fmt.Errorf("%s row %d: country %s, expected %s", path, i+2, r.Country, country)
		}
	}
	return records, nil
}

// ReadSeries parses a series CSV with header year,country_code,value.
func ReadSeries(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(seriesHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range seriesHeader {
		if header[i] != h {
			return nil, fmt.Errorf("unexpected header %v", header)
		}
	}

	var records []domain.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		year, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: year %q: %w", line, row[0], err)
		}
		value, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value %q: %w", line, row[2], err)
		}
		records = append(records, domain.Record{Year: year, Country: domain.CountryCode(row[1]), Value: value})
	}
	return records, nil
}

// WriteSeries encodes records in the flat-file CSV layout.
func WriteSeries(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Year),
			string(r.Country),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesFile writes a series CSV atomically via a temp file in the same
// directory.
func WriteSeriesFile(path string, records []domain.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".series-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteSeries(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
