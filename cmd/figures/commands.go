package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-figures/internal/adapter/basemap"
	"github.com/couchcryptid/climate-figures/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-figures/internal/adapter/worldbank"
	"github.com/couchcryptid/climate-figures/internal/config"
	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
	"github.com/couchcryptid/climate-figures/internal/pipeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "figures",
	Short:         "Render climate figures from World Bank Climate Data API series",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Fetch precipitation and temperature series for the configured countries,
reconcile them into one table and render the figures.

Settings come from the environment (COUNTRIES, TIME_RESOLUTION, OUTPUT_DIR,
OUTPUT_FORMAT, BASEMAP_SHAPEFILE, STYLE_FILE, CLIMATE_CACHE_DIR, ...).`,
}

var renderCmd = &cobra.Command{
	Use:       "render [panels|overlay|precip|composite|all]...",
	Short:     "Render one or more figures (default: all)",
	ValidArgs: append([]string{pipeline.FigureAll}, pipeline.Figures...),
	Args:      cobra.OnlyValidArgs,
	RunE:      runRender,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render all figures, then serve them with health and metrics endpoints",
	Long: `Render every figure once, then listen on HTTP_ADDR:

  GET  /figures/{name}   a rendered file from OUTPUT_DIR
  POST /render           re-render (?figure=panels&figure=overlay ...)
  GET  /healthz /readyz /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "figures %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := newPipeline(cfg, logger, metrics)
	written, err := p.Run(ctx, args...)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := newPipeline(cfg, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics.Registry, cfg.OutputDir, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Readiness stays false until this first render succeeds.
	if _, err := p.Run(ctx, pipeline.FigureAll); err != nil {
		logger.Error("initial render failed", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// setup loads config and builds the run logger and metrics.
func setup() (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, nil, nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat).
		With("run_id", uuid.NewString())
	return cfg, logger, observability.NewMetrics(), nil
}

func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	var loader pipeline.BaseMapLoader
	if cfg.BasemapShapefile != "" {
		loader = func() (domain.BaseMap, error) {
			return basemap.LoadShapefile(cfg.BasemapShapefile, cfg.BasemapCodeField, cfg.Style.MapWindow)
		}
		logger.Info("base map enabled", "shapefile", cfg.BasemapShapefile, "code_field", cfg.BasemapCodeField)
	} else {
		logger.Info("base map disabled")
	}
	return pipeline.New(newSource(cfg, metrics, logger), loader, cfg, logger, metrics, clockwork.NewRealClock())
}

// newSource stacks the API client under the optional flat-file cache and the
// in-memory LRU.
func newSource(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Source {
	var source domain.Source = worldbank.NewClient(cfg.APIBaseURL, cfg.APITimeout, metrics, logger)
	if cfg.CacheDir != "" {
		source = worldbank.NewFileCache(source, cfg.CacheDir, cfg.CacheTTL, metrics, logger)
		logger.Info("flat-file cache enabled", "dir", cfg.CacheDir, "ttl", cfg.CacheTTL)
	}
	return worldbank.NewCachedSource(source, cfg.CacheSize, metrics)
}
