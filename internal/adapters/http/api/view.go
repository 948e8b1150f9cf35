package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/dpsmeter/internal/app"
)

// ViewHandler serves snapshots and applies triggers.
type ViewHandler struct {
	deps ViewDependencies
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps ViewDependencies) *ViewHandler {
	return &ViewHandler{deps: deps}
}

// overlayRequest is the chart area in pixels.
type overlayRequest struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// HandleView handles GET /api/view requests.
func (h *ViewHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_view"
	snap, err := h.deps.View(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleAction handles POST /api/actions requests.
func (h *ViewHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.apply_action"
	var a service.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if a.Type == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing type")))
		return
	}
	snap, err := h.deps.Apply(r.Context(), a)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleOverlay handles POST /api/overlay requests.
func (h *ViewHandler) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.overlay"
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	o, err := h.deps.Overlay(r.Context(), req.Left, req.Right)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleChartPNG handles GET /api/chart.png requests.
func (h *ViewHandler) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	const op = "api.chart_png"
	var buf bytes.Buffer
	if err := h.deps.ChartPNG(r.Context(), &buf); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
