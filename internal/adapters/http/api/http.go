// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/dpsmeter/internal/adapters/chartpng"
	"github.com/okian/dpsmeter/internal/adapters/ingest"
	"github.com/okian/dpsmeter/internal/adapters/repository"
	service "github.com/okian/dpsmeter/internal/app"
	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/view"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	FileDependencies
	ViewDependencies
}

// FileDependencies manages the uploaded file list.
type FileDependencies interface {
	UploadFiles(ctx context.Context, uploads []service.Upload) ([]model.File, error)
	RemoveFile(ctx context.Context, id string) error
	Files(ctx context.Context) ([]view.FileInfo, error)
}

// ViewDependencies renders and drives the view state.
type ViewDependencies interface {
	View(ctx context.Context) (view.Snapshot, error)
	Apply(ctx context.Context, a service.Action) (view.Snapshot, error)
	Overlay(ctx context.Context, left, right float64) (service.Overlay, error)
	ChartPNG(ctx context.Context, w io.Writer) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	filesHandler  *FilesHandler
	viewHandler   *ViewHandler
}

// NewServer creates a new API server with all handlers. maxUploadBytes caps
// the body of a file upload.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxUploadBytes int64) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		filesHandler:  NewFilesHandler(deps, maxUploadBytes),
		viewHandler:   NewViewHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/files", MetricsMiddleware(s.filesHandler.HandleList, "files"))
	mux.HandleFunc("POST /api/files", MetricsMiddleware(s.filesHandler.HandleUpload, "files"))
	mux.HandleFunc("DELETE /api/files/{id}", MetricsMiddleware(s.filesHandler.HandleDelete, "files"))

	mux.HandleFunc("GET /api/view", MetricsMiddleware(s.viewHandler.HandleView, "view"))
	mux.HandleFunc("POST /api/actions", MetricsMiddleware(s.viewHandler.HandleAction, "actions"))
	mux.HandleFunc("POST /api/overlay", MetricsMiddleware(s.viewHandler.HandleOverlay, "overlay"))
	mux.HandleFunc("GET /api/chart.png", MetricsMiddleware(s.viewHandler.HandleChartPNG, "chart"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status and code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// classify translates API kinds and upstream sentinels to an HTTP status.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.Is(err, ingest.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, chartpng.ErrEmptyChart):
		return http.StatusNotFound, "empty_chart"
	case errors.Is(err, repository.ErrTooManyFiles):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidAction), errors.Is(err, ingest.ErrRead):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
