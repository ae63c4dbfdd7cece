package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"linkmap/core-go/internal/mapview"
)

// mapOptionsFromQuery overlays query parameters on the configured defaults.
func (h *Handler) mapOptionsFromQuery(q url.Values) (mapview.Options, error) {
	opts := h.mapDefaults

	if raw := q.Get("client_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, &mapview.OptionError{Field: "client_id", Reason: "must be an integer"}
		}
		opts.ClientID = &v
	}
	if raw := q.Get("separate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, &mapview.OptionError{Field: "separate", Reason: "must be true or false"}
		}
		opts.SeparationEnabled = v
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"separation_m", &opts.SeparationMeters},
		{"offset_m", &opts.OffsetMeters},
		{"arrow_t", &opts.ArrowPosition},
	}
	for _, f := range floats {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, &mapview.OptionError{Field: f.name, Reason: "must be a number"}
		}
		*f.dst = v
	}
	return opts, opts.Validate()
}

func (h *Handler) buildMap(w http.ResponseWriter, r *http.Request) (mapview.Map, bool) {
	opts, err := h.mapOptionsFromQuery(r.URL.Query())
	if err != nil {
		h.writeMapOptionError(w, err)
		return mapview.Map{}, false
	}
	if !h.ensureQueries(w) {
		return mapview.Map{}, false
	}

	m, err := h.maps.Build(r.Context(), opts)
	if err != nil {
		if errors.Is(err, mapview.ErrInvalidOptions) {
			h.writeMapOptionError(w, err)
			return mapview.Map{}, false
		}
		h.log.Error().Err(err).Msg("build map failed")
		h.writeError(w, http.StatusInternalServerError, "db_error", "failed to build map", nil)
		return mapview.Map{}, false
	}
	return m, true
}

func (h *Handler) writeMapOptionError(w http.ResponseWriter, err error) {
	details := map[string]any{"error": err.Error()}
	var oe *mapview.OptionError
	if errors.As(err, &oe) {
		details = map[string]any{"field": oe.Field, "reason": oe.Reason}
	}
	h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid map options", details)
}

func (h *Handler) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, ok := h.buildMap(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Map-Dropped-Links", fmt.Sprint(m.Dropped))
	h.writeJSON(w, http.StatusOK, m)
}

func (h *Handler) handleGetMapGeoJSON(w http.ResponseWriter, r *http.Request) {
	m, ok := h.buildMap(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(mapview.GeoJSON(m))
}
