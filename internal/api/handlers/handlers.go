// Package handlers implements the admin-facing HTTP endpoints: document
// upload plus read-only views over documents and import runs.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkovalev/docximport/internal/api/middleware"
	"github.com/dkovalev/docximport/internal/docx"
	"github.com/dkovalev/docximport/internal/pipeline"
	"github.com/dkovalev/docximport/internal/store"
)

// DefaultMaxUploadBytes bounds the size of an uploaded document.
const DefaultMaxUploadBytes = 32 << 20 // 32 MiB

// DocumentImporter runs the import pipeline for one uploaded document.
// Satisfied by *pipeline.Pipeline.
type DocumentImporter interface {
	ImportDocument(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ImportsHandler handles document upload and import endpoints.
type ImportsHandler struct {
	importer       DocumentImporter
	repo           store.ImportRepository
	targets        *pipeline.Registry
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(importer DocumentImporter, repo store.ImportRepository, targets *pipeline.Registry, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		importer:       importer,
		repo:           repo,
		targets:        targets,
		maxUploadBytes: DefaultMaxUploadBytes,
		log:            log,
	}
}

// Upload handles POST /api/documents/upload. It expects a multipart form
// with a "file" part holding the DOCX document and a "target" value
// naming the registered import target. The import runs synchronously and
// the response carries the import counts.
func (h *ImportsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "No file selected")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".docx") {
		middleware.WriteError(w, http.StatusBadRequest, "The file must be in DOCX format")
		return
	}

	target := r.FormValue("target")
	if target == "" {
		middleware.WriteError(w, http.StatusBadRequest, "target is required")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	result, err := h.importer.ImportDocument(ctx, pipeline.Request{
		Filename: filepath.Base(header.Filename),
		Content:  content,
		Target:   target,
	})
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// writeImportError maps pipeline failures onto HTTP statuses: bad input
// is the admin user's to fix, storage failures are ours.
func (h *ImportsHandler) writeImportError(w http.ResponseWriter, err error) {
	var formatErr *docx.FormatError

	switch {
	case errors.Is(err, pipeline.ErrUnknownTarget):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &formatErr):
		middleware.WriteError(w, http.StatusBadRequest, "Unreadable document: "+formatErr.Error())
	default:
		h.log.Error().Err(err).Msg("Import failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Import failed: "+err.Error())
	}
}

// ListDocuments handles GET /api/documents.
func (h *ImportsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.repo.ListDocuments(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// ListRuns handles GET /api/runs with an optional document_id filter.
func (h *ImportsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := h.repo.ListImportRuns(ctx, r.URL.Query().Get("document_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list import runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/{id}.
func (h *ImportsHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	ctx := r.Context()

	run, err := h.repo.GetImportRun(ctx, runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get import run")
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, run)
}

// ListTargets handles GET /api/targets.
func (h *ImportsHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"targets": h.targets.Names(),
	})
}
