package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a figure run.
type Metrics struct {
	Registry *prometheus.Registry

	// Acquisition metrics.
	FetchRequests *prometheus.CounterVec   // labels: variable={pr,tas}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: variable
	FetchCache    *prometheus.CounterVec   // labels: tier={memory,file}, result={hit,miss}

	Observations prometheus.Gauge

	// Rendering metrics.
	FiguresRendered *prometheus.CounterVec // labels: figure
	LayersDrawn     *prometheus.CounterVec // labels: kind
	RenderDuration  *prometheus.HistogramVec
	RenderErrors    prometheus.Counter

	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics creates all run metrics and registers them, together with the
// Go and process collectors, on a dedicated registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry without the runtime
// collectors, so tests can gather deterministic output.
func NewMetricsForTesting() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_figures",
			Name:      "fetch_requests_total",
			Help:      "Climate API series requests by variable and outcome.",
		}, []string{"variable", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_figures",
			Name:      "fetch_duration_seconds",
			Help:      "Climate API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"variable"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_figures",
			Name:      "fetch_cache_total",
			Help:      "Series cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		Observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_figures",
			Name:      "observations",
			Help:      "Rows in the merged precipitation/temperature frame.",
		}),
		FiguresRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_figures",
			Name:      "figures_rendered_total",
			Help:      "Figures written to disk by figure name.",
		}, []string{"figure"}),
		LayersDrawn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_figures",
			Name:      "layers_drawn_total",
			Help:      "Drawing layers completed by kind.",
		}, []string{"kind"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_figures",
			Name:      "render_duration_seconds",
			Help:      "Time to draw and encode one figure.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"figure"}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_figures",
			Name:      "render_errors_total",
			Help:      "Figures that failed to draw or encode.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_figures",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_figures",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote every requested figure.",
		}),
	}

	m.Registry.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.FetchCache,
		m.Observations,
		m.FiguresRendered,
		m.LayersDrawn,
		m.RenderDuration,
		m.RenderErrors,
		m.PipelineRunning,
		m.LastSuccess,
	)
	return m
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
