package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-figures/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

type mockRenderer struct {
	readyErr error
	runErr   error
	dir      string
	requests [][]string
}

func (m *mockRenderer) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockRenderer) Run(_ context.Context, figures ...string) ([]string, error) {
	m.requests = append(m.requests, figures)
	if m.runErr != nil {
		return nil, m.runErr
	}
	return []string{filepath.Join(m.dir, "overlay.png")}, nil
}

func newTestServer(t *testing.T, r *mockRenderer) (*httpadapter.Server, string) {
	t.Helper()
	dir := t.TempDir()
	r.dir = dir
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", r, metrics.Registry, dir, logger), dir
}

func serve(srv *httpadapter.Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/healthz").Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	assert.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/readyz").Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{readyErr: errors.New("no figures rendered yet")})
	assert.Equal(t, http.StatusServiceUnavailable, serve(srv, http.MethodGet, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	rec := serve(srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "climate_figures_pipeline_running")
}

func TestFigureServesRenderedFile(t *testing.T) {
	srv, dir := newTestServer(t, &mockRenderer{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.svg"), []byte("<svg/>"), 0o600))

	rec := serve(srv, http.MethodGet, "/figures/overlay.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg/>", rec.Body.String())
}

func TestFigureNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	assert.Equal(t, http.StatusNotFound, serve(srv, http.MethodGet, "/figures/panels.pdf").Code)
}

func TestFigureRejectsHiddenFiles(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	assert.Equal(t, http.StatusBadRequest, serve(srv, http.MethodGet, "/figures/.series-1.csv").Code)
}

func TestRenderRunsPipeline(t *testing.T) {
	r := &mockRenderer{}
	srv, _ := newTestServer(t, r)

	rec := serve(srv, http.MethodPost, "/render?figure=overlay&figure=precip")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, r.requests, 1)
	assert.Equal(t, []string{"overlay", "precip"}, r.requests[0])

	var body struct {
		Written []string `json:"written"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"overlay.png"}, body.Written)
}

func TestRenderFailureReturns500(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{runErr: errors.New("tables are misaligned")})

	rec := serve(srv, http.MethodPost, "/render")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tables are misaligned", body["error"])
}

func TestRenderRequiresPost(t *testing.T) {
	srv, _ := newTestServer(t, &mockRenderer{})
	assert.Equal(t, http.StatusMethodNotAllowed, serve(srv, http.MethodGet, "/render").Code)
}
