// Package site serves the embedded browser UI of the analyzer.
package site

import (
	"context"
	"errors"
	"net/http"
)

// ErrServe reports a failure to serve an embedded asset.
var ErrServe = errors.New("site serve failed")

// Register attaches the UI routes to mux. The UI lives at / and every
// asset under it; API routes registered with more specific patterns win.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", NewRootHandler())
}

// RootHandler serves index.html and the static assets.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleRoot(w, r)
}

// HandleRoot handles GET requests for the UI.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
