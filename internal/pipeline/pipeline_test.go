package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/climate-figures/internal/config"
	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
	"github.com/couchcryptid/climate-figures/internal/pipeline"
	"github.com/couchcryptid/climate-figures/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testCodes = []domain.CountryCode{"USA", "MEX", "CAN", "BLZ"}

// --- mocks ---

// mockSource serves five synthetic years per country. Fetches sleep a random
// few milliseconds so completion order differs from request order.
type mockSource struct {
	mu       sync.Mutex
	calls    int
	failOn   domain.CountryCode
	shortTas domain.CountryCode
}

func (m *mockSource) Fetch(ctx context.Context, variable domain.Variable, _ domain.Resolution, country domain.CountryCode) ([]domain.Record, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Duration(rand.IntN(5)) * time.Millisecond):
	}

	if country == m.failOn && variable == domain.Temperature {
		return nil, errors.New("climate API error: status 503")
	}
	base := map[domain.Variable]map[domain.CountryCode]float64{
		domain.Precipitation: {"USA": 60, "MEX": 65, "CAN": 45, "BLZ": 180},
		domain.Temperature:   {"USA": 8, "MEX": 20, "CAN": -5, "BLZ": 25},
	}[variable][country]

	years := 5
	if country == m.shortTas && variable == domain.Temperature {
		years = 4
	}
	out := make([]domain.Record, years)
	for i := range out {
		out[i] = domain.Record{Year: 2000 + i, Country: country, Value: base + float64(i%3)}
	}
	return out, nil
}

func square(x, y, size float64) geom.Polygon {
	return geom.Polygon{{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}}
}

func testBaseMap() (domain.BaseMap, error) {
	return domain.BaseMap{Shapes: []domain.CountryShape{
		{Code: "USA", Polygons: []geom.Polygon{square(-120, 30, 20)}},
		{Code: "MEX", Polygons: []geom.Polygon{square(-110, 17, 10)}},
		{Code: "CAN", Polygons: []geom.Polygon{square(-130, 50, 20)}},
		{Code: "BLZ", Polygons: []geom.Polygon{square(-89, 16, 1)}},
	}}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Countries:    testCodes,
		Resolution:   domain.Yearly,
		OutputDir:    filepath.Join(t.TempDir(), "figures"),
		OutputFormat: "png",
		FigureWidth:  6,
		FigureHeight: 4,
		Style:        domain.DefaultStyle(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Acquire ---

func TestAcquire_DeterministicOrder(t *testing.T) {
	src := &mockSource{}
	precip, temp, err := pipeline.Acquire(context.Background(), src, domain.Yearly, testCodes)
	require.NoError(t, err)

	require.Len(t, precip, 20)
	require.Len(t, temp, 20)
	for i, r := range precip {
		assert.Equal(t, testCodes[i/5], r.Country, "row %d", i)
		assert.Equal(t, 2000+i%5, r.Year, "row %d", i)
		assert.Equal(t, r.Country, temp[i].Country)
		assert.Equal(t, r.Year, temp[i].Year)
	}
	assert.Equal(t, 8, src.calls)
}

func TestAcquire_FetchErrorIsFatal(t *testing.T) {
	src := &mockSource{failOn: "CAN"}
	_, _, err := pipeline.Acquire(context.Background(), src, domain.Yearly, testCodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// --- Run ---

func TestPipeline_Run_AllFigures(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "climate.prom")
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	p := pipeline.New(&mockSource{}, testBaseMap, cfg, testLogger(), metrics, clock)
	require.Error(t, p.CheckReadiness(context.Background()))

	written, err := p.Run(context.Background(), pipeline.FigureAll)
	require.NoError(t, err)
	require.NoError(t, p.CheckReadiness(context.Background()))

	var want []string
	for _, name := range pipeline.Figures {
		want = append(want, filepath.Join(cfg.OutputDir, name+".png"))
	}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Errorf("written paths mismatch (-want +got):\n%s", diff)
	}
	for _, path := range written {
		assert.FileExists(t, path)
	}

	assert.Equal(t, 20.0, testutil.ToFloat64(metrics.Observations))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FiguresRendered.WithLabelValues(render.FigureComposite)))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.LayersDrawn.WithLabelValues(string(render.KindLineInset))))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.LayersDrawn.WithLabelValues(string(render.KindPanel))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LayersDrawn.WithLabelValues(string(render.KindBaseMap))))
	assert.Equal(t, float64(clock.Now().Unix()), testutil.ToFloat64(metrics.LastSuccess))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))

	data, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "climate_figures_observations 20")
}

func TestPipeline_Run_AllSkipsCompositeWithoutBaseMap(t *testing.T) {
	cfg := testConfig(t)
	p := pipeline.New(&mockSource{}, nil, cfg, testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())

	written, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, written, 3)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "composite.png"))
}

func TestPipeline_Run_CompositeNeedsBaseMap(t *testing.T) {
	cfg := testConfig(t)
	p := pipeline.New(&mockSource{}, nil, cfg, testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())

	_, err := p.Run(context.Background(), render.FigureComposite)
	require.ErrorIs(t, err, pipeline.ErrNoBaseMap)
}

func TestPipeline_Run_MisalignedTablesAbort(t *testing.T) {
	cfg := testConfig(t)
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockSource{shortTas: "MEX"}, testBaseMap, cfg, testLogger(), metrics, clockwork.NewFakeClock())

	written, err := p.Run(context.Background(), pipeline.FigureAll)
	require.ErrorIs(t, err, domain.ErrMisaligned)
	assert.Empty(t, written)
	assert.NoDirExists(t, cfg.OutputDir)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.LastSuccess))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_FetchErrorAbortsBeforeRendering(t *testing.T) {
	cfg := testConfig(t)
	p := pipeline.New(&mockSource{failOn: "BLZ"}, testBaseMap, cfg, testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())

	_, err := p.Run(context.Background(), render.FigureOverlay)
	require.Error(t, err)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestPipeline_Run_BaseMapLoadError(t *testing.T) {
	cfg := testConfig(t)
	loader := func() (domain.BaseMap, error) { return domain.BaseMap{}, errors.New("bad shapefile") }
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockSource{}, loader, cfg, testLogger(), metrics, clockwork.NewFakeClock())

	_, err := p.Run(context.Background(), render.FigureComposite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad shapefile")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderErrors))
}

func TestPipeline_Run_UnknownFigure(t *testing.T) {
	src := &mockSource{}
	p := pipeline.New(src, nil, testConfig(t), testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())

	_, err := p.Run(context.Background(), "histogram")
	require.ErrorIs(t, err, pipeline.ErrUnknownFigure)
	assert.Zero(t, src.calls, "no fetch before figure names are validated")
}

func TestPipeline_Run_DuplicatesCollapse(t *testing.T) {
	cfg := testConfig(t)
	p := pipeline.New(&mockSource{}, nil, cfg, testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())

	written, err := p.Run(context.Background(), render.FigurePrecip, render.FigureOverlay, render.FigurePrecip)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "overlay.png"),
		filepath.Join(cfg.OutputDir, "precip.png"),
	}, written)
}
