package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/dpsmeter/internal/app"
	"github.com/okian/dpsmeter/internal/domain/view"
)

// uploadField is the repeatable multipart field carrying log files.
const uploadField = "file"

// FilesHandler handles the uploaded file list.
type FilesHandler struct {
	deps           FileDependencies
	maxUploadBytes int64
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(deps FileDependencies, maxUploadBytes int64) *FilesHandler {
	return &FilesHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

type filesResponse struct {
	Files []view.FileInfo `json:"files"`
}

// HandleList handles GET /api/files requests.
func (h *FilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_files"
	files, err := h.deps.Files(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, filesResponse{Files: files})
}

// HandleUpload handles POST /api/files multipart uploads. Every part named
// "file" becomes one stored file; a failing part stores nothing.
func (h *FilesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_files"
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeFailure(w, WrapKind(op, ErrTooLarge, err))
			return
		}
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("missing %q part", uploadField)))
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		defer func() { _ = src.Close() }()
		uploads = append(uploads, service.Upload{Name: fh.Filename, Body: src})
	}

	files, err := h.deps.UploadFiles(r.Context(), uploads)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	uploaded := make([]view.FileInfo, 0, len(files))
	for _, f := range files {
		uploaded = append(uploaded, view.FileInfo{ID: f.ID, Name: f.Name, UploadedAt: f.UploadedAt, Lines: len(f.Lines)})
	}
	writeJSON(w, http.StatusCreated, filesResponse{Files: uploaded})
}

// HandleDelete handles DELETE /api/files/{id} requests.
func (h *FilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_file"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.RemoveFile(r.Context(), id); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
