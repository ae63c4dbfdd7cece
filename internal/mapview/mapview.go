// Package mapview assembles the renderable map model: declustered sites,
// deconflicted links with direction arrows, operator styling, and a legend.
package mapview

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linkmap/core-go/internal/cache"
	"linkmap/core-go/internal/geo"
	"linkmap/core-go/internal/metrics"
	"linkmap/core-go/internal/observability"
	"linkmap/core-go/internal/operator"
	"linkmap/core-go/internal/sqlcgen"
)

const (
	cachePrefix   = "mapview"
	generationKey = "mapview:generation"

	// maxTrackedKeys bounds how many keys Invalidate deletes eagerly.
	// Anything written past it is left to expiry.
	maxTrackedKeys = 4096
)

// Source is the read side of storage needed to draw a map.
type Source interface {
	ListSites(ctx context.Context, search *string) ([]sqlcgen.Site, error)
	ListLinkEndpoints(ctx context.Context, clientID *int64) ([]sqlcgen.LinkEndpoint, error)
}

type SiteMarker struct {
	geo.RenderPoint
	Tooltip string `json:"tooltip"`
}

type LinkLine struct {
	geo.RenderPath
	Operator operator.Classification `json:"operator"`
	Tooltip  string                  `json:"tooltip"`
}

type Map struct {
	Options        Options          `json:"options"`
	Center         geo.LatLon       `json:"center"`
	CenterFallback bool             `json:"center_fallback"`
	Sites          []SiteMarker     `json:"sites"`
	Links          []LinkLine       `json:"links"`
	Arrows         []geo.Arrow      `json:"arrows"`
	Legend         []operator.Tally `json:"legend"`
	Dropped        int              `json:"dropped_links"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

type Config struct {
	Source  Source
	Cache   cache.Cache
	TTL     time.Duration
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

type Builder struct {
	source  Source
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu     sync.Mutex
	stored map[string]struct{} // keys written under the current generation
}

func New(cfg Config) *Builder {
	c := cfg.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Builder{
		source:  cfg.Source,
		cache:   c,
		ttl:     cfg.TTL,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		tracer:  observability.Tracer(),
		now:     time.Now,
		stored:  make(map[string]struct{}),
	}
}

// Build returns the map for opts, serving from cache when the stored data
// has not changed since the last build with the same options.
func (b *Builder) Build(ctx context.Context, opts Options) (Map, error) {
	if err := opts.Validate(); err != nil {
		return Map{}, err
	}

	ctx, span := b.tracer.Start(ctx, "mapview.Build", trace.WithAttributes(
		attribute.Bool("map.separation_enabled", opts.SeparationEnabled),
		attribute.Float64("map.separation_m", opts.SeparationMeters),
		attribute.Float64("map.offset_m", opts.OffsetMeters),
	))
	defer span.End()

	key := b.cacheKey(ctx, opts)
	if key != "" {
		if m, ok := b.fromCache(ctx, key); ok {
			span.SetAttributes(attribute.Bool("map.cache_hit", true))
			return m, nil
		}
	}

	start := b.now()
	m, err := b.compute(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Map{}, err
	}
	b.metrics.ObserveMapBuild(b.now().Sub(start), m.Dropped)
	span.SetAttributes(
		attribute.Int("map.sites", len(m.Sites)),
		attribute.Int("map.links", len(m.Links)),
		attribute.Int("map.dropped_links", m.Dropped),
	)

	if key != "" {
		b.store(ctx, key, m)
	}
	return m, nil
}

// Invalidate makes every cached map stale and drops the entries this
// builder wrote under the previous generation. Call it after any write to
// clients, sites or links.
func (b *Builder) Invalidate(ctx context.Context) error {
	if err := b.cache.Set(ctx, generationKey, []byte(uuid.NewString()), 0); err != nil {
		return fmt.Errorf("rotate map cache generation: %w", err)
	}

	b.mu.Lock()
	old := b.stored
	b.stored = make(map[string]struct{})
	b.mu.Unlock()

	for key := range old {
		if err := b.cache.Delete(ctx, key); err != nil {
			b.log.Warn().Err(err).Msg("map cache delete failed")
		}
	}
	return nil
}

func (b *Builder) compute(ctx context.Context, opts Options) (Map, error) {
	if b.source == nil {
		return Map{}, fmt.Errorf("map source not configured")
	}
	rawSites, err := b.source.ListSites(ctx, nil)
	if err != nil {
		return Map{}, fmt.Errorf("list sites: %w", err)
	}
	rawLinks, err := b.source.ListLinkEndpoints(ctx, opts.ClientID)
	if err != nil {
		return Map{}, fmt.Errorf("list link endpoints: %w", err)
	}
	return Assemble(rawSites, rawLinks, opts, b.now()), nil
}

// Assemble runs the geometry pipeline over already-loaded rows.
func Assemble(rawSites []sqlcgen.Site, rawLinks []sqlcgen.LinkEndpoint, opts Options, now time.Time) Map {
	sites := make([]geo.Site, 0, len(rawSites))
	for _, s := range rawSites {
		sites = append(sites, siteFromRow(s))
	}
	joined := make([]geo.JoinedLink, 0, len(rawLinks))
	for _, l := range rawLinks {
		joined = append(joined, joinedFromRow(l))
	}

	points := geo.Decluster(sites, opts.SeparationEnabled, opts.SeparationMeters)
	paths := geo.Deconflict(joined, opts.OffsetMeters)
	arrows := geo.Arrows(paths, opts.ArrowPosition)

	m := Map{
		Options:     opts,
		Sites:       make([]SiteMarker, 0, len(points)),
		Links:       make([]LinkLine, 0, len(paths)),
		Arrows:      arrows,
		Dropped:     len(joined) - len(paths),
		GeneratedAt: now.UTC(),
	}
	for _, p := range points {
		m.Sites = append(m.Sites, SiteMarker{RenderPoint: p, Tooltip: siteTooltip(p.Site)})
	}

	clientNames := make([]string, 0, len(paths))
	for _, p := range paths {
		name := deref(p.ClientName)
		clientNames = append(clientNames, name)
		m.Links = append(m.Links, LinkLine{
			RenderPath: p,
			Operator:   operator.Classify(name),
			Tooltip:    linkTooltip(p.Link),
		})
	}
	m.Legend = operator.Count(clientNames)

	located := append(geo.SitePositions(sites), geo.PathEndpoints(paths)...)
	if c, ok := geo.Center(located); ok {
		m.Center = c
	} else {
		m.Center = geo.DefaultCenter
		m.CenterFallback = true
	}
	return m
}

func (b *Builder) cacheKey(ctx context.Context, opts Options) string {
	gen, ok, err := b.cache.Get(ctx, generationKey)
	if err != nil {
		b.log.Warn().Err(err).Msg("map cache generation lookup failed")
		return ""
	}
	if !ok {
		// First build against this cache: seed a generation so later
		// builds can share entries.
		gen = []byte(uuid.NewString())
		if err := b.cache.Set(ctx, generationKey, gen, 0); err != nil {
			b.log.Warn().Err(err).Msg("map cache generation seed failed")
			return ""
		}
	}
	return cache.Key(cachePrefix, string(gen), opts)
}

func (b *Builder) fromCache(ctx context.Context, key string) (Map, bool) {
	data, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		b.log.Warn().Err(err).Msg("map cache read failed")
		b.metrics.IncMapCache(false)
		return Map{}, false
	}
	if !ok {
		b.metrics.IncMapCache(false)
		return Map{}, false
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		b.log.Warn().Err(err).Msg("discarding undecodable map cache entry")
		_ = b.cache.Delete(ctx, key)
		b.metrics.IncMapCache(false)
		return Map{}, false
	}
	b.metrics.IncMapCache(true)
	return m, true
}

func (b *Builder) store(ctx context.Context, key string, m Map) {
	data, err := json.Marshal(m)
	if err != nil {
		b.log.Warn().Err(err).Msg("map cache encode failed")
		return
	}
	if err := b.cache.Set(ctx, key, data, b.ttl); err != nil {
		b.log.Warn().Err(err).Msg("map cache write failed")
		return
	}
	b.mu.Lock()
	if len(b.stored) < maxTrackedKeys {
		b.stored[key] = struct{}{}
	}
	b.mu.Unlock()
}

func siteFromRow(s sqlcgen.Site) geo.Site {
	return geo.Site{
		ID:      s.SiteID,
		Name:    deref(s.SiteName),
		Address: s.SiteAddress,
		Lat:     finite(s.LatDec),
		Lon:     finite(s.LongDec),
	}
}

func joinedFromRow(l sqlcgen.LinkEndpoint) geo.JoinedLink {
	return geo.JoinedLink{
		Link: geo.Link{
			ID:            l.LinkID,
			ApplicationID: l.ApplID,
			ClientID:      l.ClientID,
			ClientName:    l.ClientName,
			FromSiteID:    deref(l.SiteFrom),
			ToSiteID:      deref(l.SiteTo),
			FromSiteName:  l.FromSiteName,
			ToSiteName:    l.ToSiteName,
			Frequency:     l.Freq,
			FrequencyPair: l.FreqPair,
			Bandwidth:     l.Bandwidth,
			Model:         l.Model,
		},
		FromLat: finite(l.FromLat),
		FromLon: finite(l.FromLon),
		ToLat:   finite(l.ToLat),
		ToLon:   finite(l.ToLon),
	}
}

// finite drops NaN and ±Inf so they read as a missing coordinate and
// never reach the JSON encoder.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func siteTooltip(s geo.Site) string {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return fmt.Sprintf("%s (%s)", name, s.ID)
}

func linkTooltip(l geo.Link) string {
	from := orDash(l.FromSiteName)
	if l.FromSiteName == nil {
		from = dashIfEmpty(l.FromSiteID)
	}
	to := orDash(l.ToSiteName)
	if l.ToSiteName == nil {
		to = dashIfEmpty(l.ToSiteID)
	}
	var b strings.Builder
	b.WriteString(orDash(l.ClientName))
	b.WriteString("\n")
	b.WriteString(from + " → " + to)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Freq: %s/%s MHz | BW: %s kHz", intOrDash(l.Frequency), intOrDash(l.FrequencyPair), intOrDash(l.Bandwidth))
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s *string) string {
	return dashIfEmpty(strings.TrimSpace(deref(s)))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intOrDash(v *int32) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
