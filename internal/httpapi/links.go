package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"linkmap/core-go/internal/sqlcgen"
)

type link struct {
	ID        int64   `json:"id"`
	ApplID    *string `json:"appl_id,omitempty"`
	ClientID  *int64  `json:"client_id,omitempty"`
	SiteFrom  *string `json:"site_from,omitempty"`
	SiteTo    *string `json:"site_to,omitempty"`
	Freq      *int32  `json:"freq,omitempty"`
	FreqPair  *int32  `json:"freq_pair,omitempty"`
	Bandwidth *int32  `json:"bandwidth,omitempty"`
	Model     *string `json:"model,omitempty"`
}

type linkWrite struct {
	ApplID    *string `json:"appl_id"`
	ClientID  *int64  `json:"client_id,omitempty"`
	SiteFrom  *string `json:"site_from"`
	SiteTo    *string `json:"site_to"`
	Freq      *int32  `json:"freq,omitempty"`
	FreqPair  *int32  `json:"freq_pair,omitempty"`
	Bandwidth *int32  `json:"bandwidth,omitempty"`
	Model     *string `json:"model,omitempty"`
}

func toLink(l sqlcgen.Link) link {
	return link{
		ID:        l.LinkID,
		ApplID:    l.ApplID,
		ClientID:  l.ClientID,
		SiteFrom:  l.SiteFrom,
		SiteTo:    l.SiteTo,
		Freq:      l.Freq,
		FreqPair:  l.FreqPair,
		Bandwidth: l.Bandwidth,
		Model:     l.Model,
	}
}

func trimRequired(p **string) bool {
	if *p == nil {
		return false
	}
	v := strings.TrimSpace(**p)
	if v == "" {
		return false
	}
	*p = &v
	return true
}

func (req *linkWrite) validate() map[string]any {
	for _, f := range []struct {
		name string
		ptr  **string
	}{
		{"appl_id", &req.ApplID},
		{"site_from", &req.SiteFrom},
		{"site_to", &req.SiteTo},
	} {
		if !trimRequired(f.ptr) {
			return map[string]any{"field": f.name, "reason": "required"}
		}
	}
	for _, f := range []struct {
		name string
		v    *int32
	}{
		{"freq", req.Freq},
		{"freq_pair", req.FreqPair},
		{"bandwidth", req.Bandwidth},
	} {
		if f.v != nil && *f.v < 0 {
			return map[string]any{"field": f.name, "reason": "must not be negative"}
		}
	}
	return nil
}

func (h *Handler) handleListLinks(w http.ResponseWriter, r *http.Request) {
	var clientID *int64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "client_id must be a positive integer", map[string]any{"client_id": raw})
			return
		}
		clientID = &v
	}
	if !h.ensureQueries(w) {
		return
	}

	rows, err := h.queries.ListLinks(r.Context(), sqlcgen.ListLinksParams{ClientID: clientID, Search: searchParam(r)})
	if err != nil {
		h.writeStoreError(w, err, "link", "list", nil)
		return
	}

	resp := make([]link, 0, len(rows))
	for _, l := range rows {
		resp = append(resp, toLink(l))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req linkWrite
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid link", details)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	if err := h.queries.ReseedLinkSequence(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("reseed link sequence failed")
	}
	row, err := h.queries.CreateLink(r.Context(), sqlcgen.CreateLinkParams{
		ApplID:    req.ApplID,
		ClientID:  req.ClientID,
		SiteFrom:  req.SiteFrom,
		SiteTo:    req.SiteTo,
		Freq:      req.Freq,
		FreqPair:  req.FreqPair,
		Bandwidth: req.Bandwidth,
		Model:     req.Model,
	})
	if err != nil {
		h.writeStoreError(w, err, "link", "create", nil)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusCreated, toLink(row))
}

func (h *Handler) handleGetLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.GetLink(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "link", "fetch", id)
		return
	}
	h.writeJSON(w, http.StatusOK, toLink(row))
}

func (h *Handler) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	var req linkWrite
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid link", details)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.UpdateLink(r.Context(), sqlcgen.UpdateLinkParams{
		LinkID:    id,
		ApplID:    req.ApplID,
		ClientID:  req.ClientID,
		SiteFrom:  req.SiteFrom,
		SiteTo:    req.SiteTo,
		Freq:      req.Freq,
		FreqPair:  req.FreqPair,
		Bandwidth: req.Bandwidth,
		Model:     req.Model,
	})
	if err != nil {
		h.writeStoreError(w, err, "link", "update", id)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusOK, toLink(row))
}

func (h *Handler) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	n, err := h.queries.DeleteLink(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "link", "delete", id)
		return
	}
	if n == 0 {
		h.writeError(w, http.StatusNotFound, "not_found", "link not found", map[string]any{"id": id})
		return
	}

	h.invalidateMaps(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
