package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"linkmap/core-go/internal/geo"
	"linkmap/core-go/internal/sqlcgen"
)

const maxSiteIDLen = 50

type site struct {
	ID      string   `json:"id"`
	Name    *string  `json:"name,omitempty"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type siteCreate struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type siteUpdate struct {
	Name    string   `json:"name"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func toSite(s sqlcgen.Site) site {
	return site{
		ID:      s.SiteID,
		Name:    s.SiteName,
		Address: s.SiteAddress,
		Lat:     s.LatDec,
		Lon:     s.LongDec,
	}
}

func validateCoordinates(lat, lon *float64) map[string]any {
	if lat == nil || lon == nil {
		return map[string]any{"field": "lat/lon", "reason": "both coordinates are required"}
	}
	if err := geo.CheckLatLon(*lat, *lon); err != nil {
		return map[string]any{"field": "lat/lon", "reason": err.Error()}
	}
	return nil
}

func (req *siteCreate) validate() map[string]any {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.ID == "":
		return map[string]any{"field": "id", "reason": "required"}
	case len(req.ID) > maxSiteIDLen:
		return map[string]any{"field": "id", "reason": "must be at most 50 characters"}
	case req.Name == "":
		return map[string]any{"field": "name", "reason": "required"}
	}
	return validateCoordinates(req.Lat, req.Lon)
}

func (req *siteUpdate) validate() map[string]any {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return map[string]any{"field": "name", "reason": "required"}
	}
	return validateCoordinates(req.Lat, req.Lon)
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	if !h.ensureQueries(w) {
		return
	}

	rows, err := h.queries.ListSites(r.Context(), searchParam(r))
	if err != nil {
		h.writeStoreError(w, err, "site", "list", nil)
		return
	}

	resp := make([]site, 0, len(rows))
	for _, s := range rows {
		resp = append(resp, toSite(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req siteCreate
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid site", details)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.CreateSite(r.Context(), sqlcgen.CreateSiteParams{
		SiteID:      req.ID,
		SiteName:    &req.Name,
		SiteAddress: req.Address,
		LatDec:      req.Lat,
		LongDec:     req.Lon,
	})
	if err != nil {
		h.writeStoreError(w, err, "site", "create", req.ID)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusCreated, toSite(row))
}

func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.GetSite(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "site", "fetch", id)
		return
	}
	h.writeJSON(w, http.StatusOK, toSite(row))
}

func (h *Handler) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req siteUpdate
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if details := req.validate(); details != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid site", details)
		return
	}
	if !h.ensureQueries(w) {
		return
	}

	row, err := h.queries.UpdateSite(r.Context(), sqlcgen.UpdateSiteParams{
		SiteID:      id,
		SiteName:    &req.Name,
		SiteAddress: req.Address,
		LatDec:      req.Lat,
		LongDec:     req.Lon,
	})
	if err != nil {
		h.writeStoreError(w, err, "site", "update", id)
		return
	}

	h.invalidateMaps(r.Context())
	h.writeJSON(w, http.StatusOK, toSite(row))
}

func (h *Handler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ensureQueries(w) {
		return
	}

	n, err := h.queries.DeleteSite(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "site", "delete", id)
		return
	}
	if n == 0 {
		h.writeError(w, http.StatusNotFound, "not_found", "site not found", map[string]any{"id": id})
		return
	}

	h.invalidateMaps(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
