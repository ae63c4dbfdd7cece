package httpapi

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"linkmap/core-go/internal/importer"
	"linkmap/core-go/internal/sqlcgen"
)

// fakeStore is an in-memory stand-in for the three tables with the same
// not-found and foreign-key behaviour as Postgres.
type fakeStore struct {
	clients  map[int64]sqlcgen.Client
	sites    map[string]sqlcgen.Site
	links    map[int64]sqlcgen.Link
	nextID   int64
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients: map[int64]sqlcgen.Client{},
		sites:   map[string]sqlcgen.Site{},
		links:   map[int64]sqlcgen.Link{},
		nextID:  1,
	}
}

func fkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "foreign key violation"}
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

// matches mirrors the case-insensitive substring filter of the list queries.
func matches(search *string, fields ...*string) bool {
	if search == nil {
		return true
	}
	needle := strings.ToLower(*search)
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), needle) {
			return true
		}
	}
	return false
}

func (f *fakeStore) ListClients(_ context.Context, search *string) ([]sqlcgen.Client, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]sqlcgen.Client, 0, len(f.clients))
	for _, c := range f.clients {
		name, id := c.ClientName, strconv.FormatInt(c.ClientID, 10)
		if !matches(search, &name, &id) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

func (f *fakeStore) GetClient(_ context.Context, id int64) (sqlcgen.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return sqlcgen.Client{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) CreateClient(_ context.Context, name string) (sqlcgen.Client, error) {
	c := sqlcgen.Client{ClientID: f.id(), ClientName: name}
	f.clients[c.ClientID] = c
	return c, nil
}

func (f *fakeStore) UpdateClient(_ context.Context, arg sqlcgen.UpdateClientParams) (sqlcgen.Client, error) {
	if _, ok := f.clients[arg.ClientID]; !ok {
		return sqlcgen.Client{}, pgx.ErrNoRows
	}
	c := sqlcgen.Client{ClientID: arg.ClientID, ClientName: arg.ClientName}
	f.clients[c.ClientID] = c
	return c, nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id int64) (int64, error) {
	if _, ok := f.clients[id]; !ok {
		return 0, nil
	}
	for _, l := range f.links {
		if l.ClientID != nil && *l.ClientID == id {
			return 0, fkViolation("links_client_id_fkey")
		}
	}
	delete(f.clients, id)
	return 1, nil
}

func (f *fakeStore) FindClientIDByName(_ context.Context, name string) (int64, error) {
	var best int64
	for id, c := range f.clients {
		if c.ClientName == name && (best == 0 || id < best) {
			best = id
		}
	}
	if best == 0 {
		return 0, pgx.ErrNoRows
	}
	return best, nil
}

func (f *fakeStore) ReseedClientSequence(context.Context) error { return nil }

func (f *fakeStore) ListSites(_ context.Context, search *string) ([]sqlcgen.Site, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]sqlcgen.Site, 0, len(f.sites))
	for _, s := range f.sites {
		id := s.SiteID
		if !matches(search, &id, s.SiteName, s.SiteAddress) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
	return out, nil
}

func (f *fakeStore) GetSite(_ context.Context, id string) (sqlcgen.Site, error) {
	s, ok := f.sites[id]
	if !ok {
		return sqlcgen.Site{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) CreateSite(_ context.Context, arg sqlcgen.CreateSiteParams) (sqlcgen.Site, error) {
	if _, ok := f.sites[arg.SiteID]; ok {
		return sqlcgen.Site{}, &pgconn.PgError{Code: "23505", ConstraintName: "sites_pkey"}
	}
	s := sqlcgen.Site{SiteID: arg.SiteID, SiteName: arg.SiteName, SiteAddress: arg.SiteAddress, LatDec: arg.LatDec, LongDec: arg.LongDec}
	f.sites[s.SiteID] = s
	return s, nil
}

func (f *fakeStore) UpdateSite(_ context.Context, arg sqlcgen.UpdateSiteParams) (sqlcgen.Site, error) {
	if _, ok := f.sites[arg.SiteID]; !ok {
		return sqlcgen.Site{}, pgx.ErrNoRows
	}
	s := sqlcgen.Site{SiteID: arg.SiteID, SiteName: arg.SiteName, SiteAddress: arg.SiteAddress, LatDec: arg.LatDec, LongDec: arg.LongDec}
	f.sites[s.SiteID] = s
	return s, nil
}

func (f *fakeStore) DeleteSite(_ context.Context, id string) (int64, error) {
	if _, ok := f.sites[id]; !ok {
		return 0, nil
	}
	for _, l := range f.links {
		if (l.SiteFrom != nil && *l.SiteFrom == id) || (l.SiteTo != nil && *l.SiteTo == id) {
			return 0, fkViolation("links_site_from_fkey")
		}
	}
	delete(f.sites, id)
	return 1, nil
}

func (f *fakeStore) SiteExists(_ context.Context, id string) (bool, error) {
	_, ok := f.sites[id]
	return ok, nil
}

func (f *fakeStore) checkLinkRefs(clientID *int64, from, to *string) error {
	if clientID != nil {
		if _, ok := f.clients[*clientID]; !ok {
			return fkViolation("links_client_id_fkey")
		}
	}
	for _, s := range []*string{from, to} {
		if s == nil {
			continue
		}
		if _, ok := f.sites[*s]; !ok {
			return fkViolation("links_site_fkey")
		}
	}
	return nil
}

func (f *fakeStore) siteName(id *string) *string {
	if id == nil {
		return nil
	}
	if s, ok := f.sites[*id]; ok {
		return s.SiteName
	}
	return nil
}

func (f *fakeStore) ListLinks(_ context.Context, arg sqlcgen.ListLinksParams) ([]sqlcgen.Link, error) {
	out := make([]sqlcgen.Link, 0, len(f.links))
	for _, l := range f.links {
		if arg.ClientID != nil && (l.ClientID == nil || *l.ClientID != *arg.ClientID) {
			continue
		}
		if !matches(arg.Search, l.ApplID, l.Model, l.SiteFrom, l.SiteTo, f.siteName(l.SiteFrom), f.siteName(l.SiteTo)) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })
	return out, nil
}

func (f *fakeStore) GetLink(_ context.Context, id int64) (sqlcgen.Link, error) {
	l, ok := f.links[id]
	if !ok {
		return sqlcgen.Link{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) CreateLink(_ context.Context, arg sqlcgen.CreateLinkParams) (sqlcgen.Link, error) {
	if f.failWith != nil {
		return sqlcgen.Link{}, f.failWith
	}
	if err := f.checkLinkRefs(arg.ClientID, arg.SiteFrom, arg.SiteTo); err != nil {
		return sqlcgen.Link{}, err
	}
	l := sqlcgen.Link{
		LinkID:    f.id(),
		ApplID:    arg.ApplID,
		ClientID:  arg.ClientID,
		SiteFrom:  arg.SiteFrom,
		SiteTo:    arg.SiteTo,
		Freq:      arg.Freq,
		FreqPair:  arg.FreqPair,
		Bandwidth: arg.Bandwidth,
		Model:     arg.Model,
	}
	f.links[l.LinkID] = l
	return l, nil
}

func (f *fakeStore) UpdateLink(_ context.Context, arg sqlcgen.UpdateLinkParams) (sqlcgen.Link, error) {
	if _, ok := f.links[arg.LinkID]; !ok {
		return sqlcgen.Link{}, pgx.ErrNoRows
	}
	if err := f.checkLinkRefs(arg.ClientID, arg.SiteFrom, arg.SiteTo); err != nil {
		return sqlcgen.Link{}, err
	}
	l := sqlcgen.Link{
		LinkID:    arg.LinkID,
		ApplID:    arg.ApplID,
		ClientID:  arg.ClientID,
		SiteFrom:  arg.SiteFrom,
		SiteTo:    arg.SiteTo,
		Freq:      arg.Freq,
		FreqPair:  arg.FreqPair,
		Bandwidth: arg.Bandwidth,
		Model:     arg.Model,
	}
	f.links[l.LinkID] = l
	return l, nil
}

func (f *fakeStore) DeleteLink(_ context.Context, id int64) (int64, error) {
	if _, ok := f.links[id]; !ok {
		return 0, nil
	}
	delete(f.links, id)
	return 1, nil
}

func (f *fakeStore) LinkExists(_ context.Context, arg sqlcgen.LinkExistsParams) (bool, error) {
	for _, l := range f.links {
		sameAppl := (l.ApplID == nil && arg.ApplID == nil) ||
			(l.ApplID != nil && arg.ApplID != nil && *l.ApplID == *arg.ApplID)
		if sameAppl && l.SiteFrom != nil && *l.SiteFrom == arg.SiteFrom && l.SiteTo != nil && *l.SiteTo == arg.SiteTo {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ReseedLinkSequence(context.Context) error { return nil }

func (f *fakeStore) ListLinkEndpoints(_ context.Context, clientID *int64) ([]sqlcgen.LinkEndpoint, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	links, _ := f.ListLinks(context.Background(), sqlcgen.ListLinksParams{ClientID: clientID})
	out := make([]sqlcgen.LinkEndpoint, 0, len(links))
	for _, l := range links {
		e := sqlcgen.LinkEndpoint{Link: l}
		if l.ClientID != nil {
			if c, ok := f.clients[*l.ClientID]; ok {
				name := c.ClientName
				e.ClientName = &name
			}
		}
		if l.SiteFrom != nil {
			if s, ok := f.sites[*l.SiteFrom]; ok {
				e.FromSiteName, e.FromLat, e.FromLon = s.SiteName, s.LatDec, s.LongDec
			}
		}
		if l.SiteTo != nil {
			if s, ok := f.sites[*l.SiteTo]; ok {
				e.ToSiteName, e.ToLat, e.ToLon = s.SiteName, s.LatDec, s.LongDec
			}
		}
		out = append(out, e)
	}
	return out, nil
}

var _ Queries = (*fakeStore)(nil)
var _ Queries = (*sqlcgen.Queries)(nil)
var _ importer.Queries = (*fakeStore)(nil)
