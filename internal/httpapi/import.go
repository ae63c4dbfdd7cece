package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"linkmap/core-go/internal/importer"
)

// importSource returns the CSV stream from either a multipart "file" field
// or the raw request body.
func (h *Handler) importSource(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "dry_run must be true or false", map[string]any{"dry_run": raw})
			return
		}
		dryRun = v
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	src, err := h.importSource(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "could not read upload", map[string]any{"error": err.Error()})
		return
	}
	defer src.Close()

	plan, err := importer.Parse(src)
	if err != nil {
		h.writeImportParseError(w, err)
		return
	}

	if dryRun {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"dry_run": true,
			"summary": plan.Summary(),
		})
		return
	}

	if !h.ensureQueries(w) {
		return
	}

	stats, err := h.importer.Run(r.Context(), plan)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "import_failed", "import failed; no changes were saved", map[string]any{
			"batch_id": stats.BatchID,
			"error":    err.Error(),
		})
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"dry_run": false,
		"summary": plan.Summary(),
		"stats":   stats,
	})
}

func (h *Handler) writeImportParseError(w http.ResponseWriter, err error) {
	var missing *importer.MissingColumnsError
	var rowErr *importer.RowError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &missing):
		h.writeError(w, http.StatusBadRequest, "validation_failed", "csv is missing required columns", map[string]any{
			"missing": missing.Columns,
		})
	case errors.As(err, &rowErr):
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid csv value", map[string]any{
			"row":    rowErr.Row,
			"column": rowErr.Column,
			"error":  rowErr.Err.Error(),
		})
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "validation_failed", "upload too large", map[string]any{
			"limit_bytes": tooLarge.Limit,
		})
	default:
		h.writeError(w, http.StatusBadRequest, "validation_failed", "could not parse csv", map[string]any{"error": err.Error()})
	}
}

func (h *Handler) handleApplySchema(w http.ResponseWriter, r *http.Request) {
	if h.applySchema == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return
	}

	applied, err := h.applySchema(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("apply schema failed")
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to apply schema", map[string]any{"error": err.Error()})
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}
