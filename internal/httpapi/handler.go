package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"linkmap/core-go/internal/cache"
	"linkmap/core-go/internal/db"
	"linkmap/core-go/internal/importer"
	"linkmap/core-go/internal/mapview"
	"linkmap/core-go/internal/metrics"
	"linkmap/core-go/internal/sqlcgen"
)

// Queries is everything the API reads and writes. *sqlcgen.Queries
// satisfies it.
type Queries interface {
	importer.Queries
	mapview.Source

	ListClients(ctx context.Context, search *string) ([]sqlcgen.Client, error)
	GetClient(ctx context.Context, clientID int64) (sqlcgen.Client, error)
	UpdateClient(ctx context.Context, arg sqlcgen.UpdateClientParams) (sqlcgen.Client, error)
	DeleteClient(ctx context.Context, clientID int64) (int64, error)

	GetSite(ctx context.Context, siteID string) (sqlcgen.Site, error)
	UpdateSite(ctx context.Context, arg sqlcgen.UpdateSiteParams) (sqlcgen.Site, error)
	DeleteSite(ctx context.Context, siteID string) (int64, error)

	ListLinks(ctx context.Context, arg sqlcgen.ListLinksParams) ([]sqlcgen.Link, error)
	GetLink(ctx context.Context, linkID int64) (sqlcgen.Link, error)
	UpdateLink(ctx context.Context, arg sqlcgen.UpdateLinkParams) (sqlcgen.Link, error)
	DeleteLink(ctx context.Context, linkID int64) (int64, error)
}

type Handler struct {
	log         zerolog.Logger
	pool        *db.Pool
	queries     Queries
	maps        *mapview.Builder
	importer    *importer.Importer
	applySchema func(ctx context.Context) ([]string, error)

	metrics        *metrics.Metrics
	cache          cache.Cache
	cacheTTL       time.Duration
	mapDefaults    mapview.Options
	maxUploadBytes int64
	requestTimeout time.Duration
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(h *Handler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

func WithMapDefaults(o mapview.Options) Option {
	return func(h *Handler) { h.mapDefaults = o }
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) { h.maxUploadBytes = n }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.requestTimeout = d }
}

func NewHandler(log zerolog.Logger, pool *db.Pool, opts ...Option) *Handler {
	h := &Handler{
		log:            log,
		pool:           pool,
		mapDefaults:    mapview.DefaultOptions(),
		maxUploadBytes: 32 << 20,
		requestTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	if pool != nil {
		h.useQueries(pool.Queries(), importer.PoolStore(pool))
		h.applySchema = pool.ApplySchema
	}
	return h
}

// useQueries wires q into the map builder and importer.
func (h *Handler) useQueries(q Queries, store importer.Store) {
	h.queries = q
	h.maps = mapview.New(mapview.Config{
		Source:  q,
		Cache:   h.cache,
		TTL:     h.cacheTTL,
		Metrics: h.metrics,
		Logger:  h.log,
	})
	h.importer = importer.New(h.log, store, h.metrics)
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.requestTimeout))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.handleListClients)
				r.Post("/", h.handleCreateClient)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetClient)
					r.Put("/", h.handleUpdateClient)
					r.Delete("/", h.handleDeleteClient)
				})
			})

			r.Route("/sites", func(r chi.Router) {
				r.Get("/", h.handleListSites)
				r.Post("/", h.handleCreateSite)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetSite)
					r.Put("/", h.handleUpdateSite)
					r.Delete("/", h.handleDeleteSite)
				})
			})

			r.Route("/links", func(r chi.Router) {
				r.Get("/", h.handleListLinks)
				r.Post("/", h.handleCreateLink)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetLink)
					r.Put("/", h.handleUpdateLink)
					r.Delete("/", h.handleDeleteLink)
				})
			})

			r.Route("/map", func(r chi.Router) {
				r.Get("/", h.handleGetMap)
				r.Get("/geojson", h.handleGetMapGeoJSON)
			})

			r.Post("/import", h.handleImport)
			r.Post("/schema", h.handleApplySchema)
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), duration)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

// writeStoreError maps storage errors onto the API error envelope.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, entity, action string, id any) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		h.writeError(w, http.StatusNotFound, "not_found", entity+" not found", map[string]any{"id": id})
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		h.writeError(w, http.StatusConflict, "conflict", entity+" violates a reference to another record", map[string]any{
			"id":         id,
			"constraint": pgErr.ConstraintName,
		})
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		h.writeError(w, http.StatusConflict, "conflict", entity+" already exists", map[string]any{"id": id})
	case errors.As(err, &pgErr) && (pgErr.Code == "22P02" || pgErr.Code == "22001"):
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid "+entity+" value", map[string]any{"error": pgErr.Message})
	default:
		h.log.Error().Err(err).Interface("id", id).Msgf("%s %s failed", action, entity)
		h.writeError(w, http.StatusInternalServerError, "db_error", fmt.Sprintf("failed to %s %s", action, entity), nil)
	}
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

// searchParam reads the ?q= list filter. Blank means no filter.
func searchParam(r *http.Request) *string {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return nil
	}
	return &q
}

func (h *Handler) ensureQueries(w http.ResponseWriter) bool {
	if h.queries == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return false
	}
	return true
}

// invalidateMaps is called after every successful write.
func (h *Handler) invalidateMaps(ctx context.Context) {
	if h.maps == nil {
		return
	}
	if err := h.maps.Invalidate(ctx); err != nil {
		h.log.Warn().Err(err).Msg("map cache invalidation failed")
	}
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pool == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}
