package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Renderer runs the figure pipeline on demand.
type Renderer interface {
	sharedobs.ReadinessChecker
	Run(ctx context.Context, figures ...string) ([]string, error)
}

// Server exposes health, readiness and metrics endpoints, serves rendered
// figures from the output directory and re-renders on POST /render.
type Server struct {
	httpServer *http.Server
	renderer   Renderer
	figuresDir string
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /figures/{name} and /render routes.
func NewServer(addr string, renderer Renderer, gatherer prometheus.Gatherer, figuresDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute, // POST /render fetches and draws synchronously
			IdleTimeout:  60 * time.Second,
		},
		renderer:   renderer,
		figuresDir: figuresDir,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(renderer))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /figures/{name}", s.handleFigure)
	mux.HandleFunc("POST /render", s.handleRender)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || name[0] == '.' {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid figure name"})
		return
	}
	path := filepath.Join(s.figuresDir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "figure not rendered"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	figures := r.URL.Query()["figure"]
	written, err := s.renderer.Run(r.Context(), figures...)
	if err != nil {
		s.logger.Error("render request failed", "figures", figures, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "written": names(written)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"written": names(written)})
}

// names strips directories so responses never leak server paths.
func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
