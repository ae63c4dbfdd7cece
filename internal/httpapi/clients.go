package httpapi

import (
	"net/http"
	"strings"

	"linkmap/core-go/internal/operator"
	"linkmap/core-go/internal/sqlcgen"
)

const maxClientNameLen = 100

type client struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Operator string `json:"operator"`
}

type clientWrite struct {
	Name string `json:"name"`
}

func toClient(c sqlcgen.Client) client {
	return client{ID: c.ClientID, Name: c.ClientName, Operator: operator.Classify(c.ClientName).Key}
}

func (req *clientWrite) validate() map[string]any {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return map[string]any{"field": "name", "reason": "required"}
	case len(req.Name) > maxClientNameLen:
		return map[string]any{"field": "name", "reason": "must be at most 100 characters"}
	}
	return nil
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	if !h.ensureQueries(w) {
		return
	}

	rows, err := h.queries.ListClients(r.Context(), searchParam(r))
	if err != nil {
		h.writeStoreError(w, err, "client", "list", nil)
		return
	}

	resp := make([]client, 0, len(rows))
	for _, c := range rows {
		resp = append(resp, toClient(c))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientWrite
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid client", details)
		return
	}

	if !h.ensureQueries(w) {
		return
	}

	if err := h.queries.ReseedClientSequence(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("reseed client sequence failed")
	}
	row, err := h.queries.CreateClient(r.Context(), req.Name)
	if err != nil {
		h.writeStoreError(w, err, "client", "create", nil)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusCreated, toClient(row))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.GetClient(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "client", "fetch", id)
		return
	}
	h.writeJSON(w, http.StatusOK, toClient(row))
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	var req clientWrite
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid client", details)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.UpdateClient(r.Context(), sqlcgen.UpdateClientParams{ClientID: id, ClientName: req.Name})
	if err != nil {
		h.writeStoreError(w, err, "client", "update", id)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusOK, toClient(row))
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	n, err := h.queries.DeleteClient(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "client", "delete", id)
		return
	}
	if n == 0 {
		h.writeError(w, http.StatusNotFound, "not_found", "client not found", map[string]any{"id": id})
		return
	}

	h.invalidateMaps(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
