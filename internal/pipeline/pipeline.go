package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-figures/internal/config"
	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
	"github.com/couchcryptid/climate-figures/internal/render"
)

// FigureAll selects every figure. Under it a missing base map skips the
// composite instead of failing the run.
const FigureAll = "all"

// Figures lists every figure in render order.
var Figures = []string{render.FigurePanels, render.FigureOverlay, render.FigurePrecip, render.FigureComposite}

var (
	// ErrNoBaseMap is returned when the composite is requested without a
	// base map loader.
	ErrNoBaseMap = errors.New("composite figure needs BASEMAP_SHAPEFILE")
	// ErrUnknownFigure is returned for a figure name outside Figures.
	ErrUnknownFigure = errors.New("unknown figure")
)

// BaseMapLoader returns country outlines for the composite figure.
type BaseMapLoader func() (domain.BaseMap, error)

// Pipeline runs acquire, merge, index, render and save once per call. Calls
// are serialized because every figure shares the output directory.
type Pipeline struct {
	source  domain.Source
	basemap BaseMapLoader
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	mu      sync.Mutex
	ready   atomic.Bool
}

// New creates a Pipeline. basemap may be nil when no shapefile is configured.
func New(source domain.Source, basemap BaseMapLoader, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		source:  source,
		basemap: basemap,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no figures rendered yet")
	}
	return nil
}

// Run renders the named figures and returns the paths written. Any failure
// aborts the run; figures already saved stay on disk.
func (p *Pipeline) Run(ctx context.Context, figures ...string) ([]string, error) {
	names, all, err := expandFigures(figures)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	defer p.writeMetrics()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("pipeline started",
		"figures", names,
		"countries", p.cfg.Countries,
		"resolution", p.cfg.Resolution,
	)

	precip, temp, err := Acquire(ctx, p.source, p.cfg.Resolution, p.cfg.Countries)
	if err != nil {
		return nil, err
	}

	frame, err := domain.Merge(precip, temp)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	p.metrics.Observations.Set(float64(len(frame)))

	idx, err := domain.BuildIndex(frame, p.cfg.Countries)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	p.logger.Info("frame ready", "rows", len(frame), "countries", len(idx.Codes()))

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	plotter := render.NewPlotter(frame, idx, p.cfg.Style)
	var written []string
	for _, name := range names {
		if name == render.FigureComposite && p.basemap == nil {
			if all {
				p.logger.Warn("skipping composite figure: BASEMAP_SHAPEFILE is not set")
				continue
			}
			return written, ErrNoBaseMap
		}

		path, err := p.renderFigure(plotter, name)
		if err != nil {
			p.metrics.RenderErrors.Inc()
			return written, err
		}
		written = append(written, path)
	}

	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "written", len(written))
	return written, nil
}

func (p *Pipeline) renderFigure(plotter *render.Plotter, name string) (string, error) {
	start := p.clock.Now()

	fig, err := p.buildFigure(plotter, name)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", name, err)
	}

	path := filepath.Join(p.cfg.OutputDir, name+"."+p.cfg.OutputFormat)
	if err := render.Save(fig, path, p.cfg.FigureWidth, p.cfg.FigureHeight); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	p.metrics.RenderDuration.WithLabelValues(name).Observe(p.clock.Since(start).Seconds())
	p.metrics.FiguresRendered.WithLabelValues(name).Inc()
	for _, l := range fig.Layers {
		p.metrics.LayersDrawn.WithLabelValues(string(l.Kind())).Inc()
	}
	p.logger.Info("figure written", "figure", name, "path", path, "layers", len(fig.Layers))
	return path, nil
}

func (p *Pipeline) buildFigure(plotter *render.Plotter, name string) (render.Figure, error) {
	switch name {
	case render.FigurePanels:
		return plotter.Panels()
	case render.FigureOverlay:
		return plotter.Overlay()
	case render.FigurePrecip:
		return plotter.Precip(render.PrecipOptions{})
	case render.FigureComposite:
		m, err := p.basemap()
		if err != nil {
			return render.Figure{}, fmt.Errorf("load base map: %w", err)
		}
		return plotter.Composite(m)
	default:
		return render.Figure{}, fmt.Errorf("%w: %s", ErrUnknownFigure, name)
	}
}

func (p *Pipeline) writeMetrics() {
	if p.cfg.MetricsTextfile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
		p.logger.Error("write metrics textfile", "path", p.cfg.MetricsTextfile, "error", err)
	}
}

// expandFigures validates names, expands "all" and drops duplicates while
// keeping render order.
func expandFigures(names []string) ([]string, bool, error) {
	if len(names) == 0 {
		names = []string{FigureAll}
	}
	want := make(map[string]bool, len(Figures))
	all := false
	for _, n := range names {
		switch {
		case n == FigureAll:
			all = true
			for _, f := range Figures {
				want[f] = true
			}
		case slices.Contains(Figures, n):
			want[n] = true
		default:
			return nil, false, fmt.Errorf("%w: %s", ErrUnknownFigure, n)
		}
	}
	var out []string
	for _, f := range Figures {
		if want[f] {
			out = append(out, f)
		}
	}
	return out, all, nil
}
