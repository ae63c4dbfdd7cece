package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linkmap/core-go/internal/db"
	"linkmap/core-go/internal/metrics"
	"linkmap/core-go/internal/observability"
	"linkmap/core-go/internal/sqlcgen"
)

// Queries is the minimal DB interface the importer needs.
// *sqlcgen.Queries satisfies this.
type Queries interface {
	FindClientIDByName(ctx context.Context, clientName string) (int64, error)
	CreateClient(ctx context.Context, clientName string) (sqlcgen.Client, error)
	ReseedClientSequence(ctx context.Context) error
	SiteExists(ctx context.Context, siteID string) (bool, error)
	CreateSite(ctx context.Context, arg sqlcgen.CreateSiteParams) (sqlcgen.Site, error)
	LinkExists(ctx context.Context, arg sqlcgen.LinkExistsParams) (bool, error)
	CreateLink(ctx context.Context, arg sqlcgen.CreateLinkParams) (sqlcgen.Link, error)
	ReseedLinkSequence(ctx context.Context) error
}

// Store runs an import unit of work, normally inside one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// PoolStore runs each import in a single pgx transaction.
func PoolStore(p *db.Pool) Store { return poolStore{p: p} }

type poolStore struct{ p *db.Pool }

func (s poolStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	return s.p.InTx(ctx, func(q *sqlcgen.Queries) error { return fn(q) })
}

// Direct runs against q without a transaction boundary.
func Direct(q Queries) Store { return directStore{q: q} }

type directStore struct{ q Queries }

func (s directStore) InTx(_ context.Context, fn func(q Queries) error) error { return fn(s.q) }

type Stats struct {
	BatchID                string        `json:"batch_id"`
	Rows                   int           `json:"rows"`
	ClientsCreated         int           `json:"clients_created"`
	ClientsFound           int           `json:"clients_found"`
	SitesImported          int           `json:"sites_imported"`
	SitesSkipped           int           `json:"sites_skipped"`
	LinksImported          int           `json:"links_imported"`
	LinksSkipped           int           `json:"links_skipped"`
	LinksSkippedIncomplete int           `json:"links_skipped_incomplete"`
	LinksSkippedDuplicate  int           `json:"links_skipped_duplicate"`
	Duration               time.Duration `json:"duration_ns"`
}

type Importer struct {
	log     zerolog.Logger
	store   Store
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func New(log zerolog.Logger, store Store, m *metrics.Metrics) *Importer {
	return &Importer{
		log:     log,
		store:   store,
		metrics: m,
		tracer:  observability.Tracer(),
		now:     time.Now,
	}
}

// Run writes plan in order clients, sites, links. Existing rows are left
// untouched; everything happens in one unit of work so a failure leaves
// storage as it was.
func (im *Importer) Run(ctx context.Context, plan *Plan) (Stats, error) {
	if plan == nil {
		return Stats{}, errors.New("nil import plan")
	}
	stats := Stats{BatchID: uuid.NewString(), Rows: plan.Rows}
	log := im.log.With().Str("batch_id", stats.BatchID).Logger()

	ctx, span := im.tracer.Start(ctx, "importer.Run", trace.WithAttributes(
		attribute.String("import.batch_id", stats.BatchID),
		attribute.Int("import.rows", plan.Rows),
	))
	defer span.End()

	start := im.now()
	log.Info().
		Int("rows", plan.Rows).
		Int("clients", len(plan.Clients)).
		Int("sites", len(plan.Sites)).
		Int("links", len(plan.Links)).
		Msg("import started")

	err := im.store.InTx(ctx, func(q Queries) error {
		// Reset counters in case the store retries fn.
		s := Stats{BatchID: stats.BatchID, Rows: stats.Rows}
		clientIDs, err := im.importClients(ctx, q, plan.Clients, &s)
		if err != nil {
			return err
		}
		if err := im.importSites(ctx, q, plan.Sites, &s); err != nil {
			return err
		}
		if err := im.importLinks(ctx, q, plan.Links, clientIDs, &s); err != nil {
			return err
		}
		stats = s
		return nil
	})
	stats.Duration = im.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Dur("duration", stats.Duration).Msg("import failed")
		return Stats{BatchID: stats.BatchID, Rows: plan.Rows, Duration: stats.Duration}, err
	}

	im.metrics.AddImportRows("client", "created", stats.ClientsCreated)
	im.metrics.AddImportRows("client", "found", stats.ClientsFound)
	im.metrics.AddImportRows("site", "created", stats.SitesImported)
	im.metrics.AddImportRows("site", "skipped", stats.SitesSkipped)
	im.metrics.AddImportRows("link", "created", stats.LinksImported)
	im.metrics.AddImportRows("link", "skipped", stats.LinksSkipped)

	span.SetAttributes(
		attribute.Int("import.links_imported", stats.LinksImported),
		attribute.Int("import.links_skipped", stats.LinksSkipped),
	)
	log.Info().
		Int("clients_created", stats.ClientsCreated).
		Int("clients_found", stats.ClientsFound).
		Int("sites_imported", stats.SitesImported).
		Int("sites_skipped", stats.SitesSkipped).
		Int("links_imported", stats.LinksImported).
		Int("links_skipped", stats.LinksSkipped).
		Dur("duration", stats.Duration).
		Msg("import finished")
	return stats, nil
}

func (im *Importer) importClients(ctx context.Context, q Queries, names []string, s *Stats) (map[string]int64, error) {
	ids := make(map[string]int64, len(names))
	reseeded := false
	for _, name := range names {
		id, err := q.FindClientIDByName(ctx, name)
		if err == nil {
			ids[name] = id
			s.ClientsFound++
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("find client %q: %w", name, err)
		}
		if !reseeded {
			if err := q.ReseedClientSequence(ctx); err != nil {
				return nil, fmt.Errorf("reseed client sequence: %w", err)
			}
			reseeded = true
		}
		c, err := q.CreateClient(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create client %q: %w", name, err)
		}
		ids[name] = c.ClientID
		s.ClientsCreated++
	}
	return ids, nil
}

func (im *Importer) importSites(ctx context.Context, q Queries, sites []SiteRow, s *Stats) error {
	for _, site := range sites {
		exists, err := q.SiteExists(ctx, site.ID)
		if err != nil {
			return fmt.Errorf("check site %q: %w", site.ID, err)
		}
		if exists {
			s.SitesSkipped++
			continue
		}
		name := site.Name
		if _, err := q.CreateSite(ctx, sqlcgen.CreateSiteParams{
			SiteID:      site.ID,
			SiteName:    &name,
			SiteAddress: site.Address,
			LatDec:      site.Lat,
			LongDec:     site.Lon,
		}); err != nil {
			return fmt.Errorf("create site %q: %w", site.ID, err)
		}
		s.SitesImported++
	}
	return nil
}

func (im *Importer) importLinks(ctx context.Context, q Queries, links []LinkRow, clientIDs map[string]int64, s *Stats) error {
	reseeded := false
	for _, l := range links {
		clientID, ok := clientIDs[l.ClientName]
		if l.SiteFrom == "" || l.SiteTo == "" || l.ClientName == "" || !ok {
			s.LinksSkipped++
			s.LinksSkippedIncomplete++
			continue
		}
		exists, err := q.LinkExists(ctx, sqlcgen.LinkExistsParams{ApplID: l.ApplID, SiteFrom: l.SiteFrom, SiteTo: l.SiteTo})
		if err != nil {
			return fmt.Errorf("check link row %d: %w", l.Row, err)
		}
		if exists {
			s.LinksSkipped++
			s.LinksSkippedDuplicate++
			continue
		}
		if !reseeded {
			if err := q.ReseedLinkSequence(ctx); err != nil {
				return fmt.Errorf("reseed link sequence: %w", err)
			}
			reseeded = true
		}
		from, to := l.SiteFrom, l.SiteTo
		if _, err := q.CreateLink(ctx, sqlcgen.CreateLinkParams{
			ApplID:    l.ApplID,
			ClientID:  &clientID,
			SiteFrom:  &from,
			SiteTo:    &to,
			Freq:      l.Freq,
			FreqPair:  l.FreqPair,
			Bandwidth: l.Bandwidth,
			Model:     l.Model,
		}); err != nil {
			return fmt.Errorf("create link row %d: %w", l.Row, err)
		}
		s.LinksImported++
	}
	return nil
}
