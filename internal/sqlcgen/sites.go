package sqlcgen

import "context"

const listSites = `-- name: ListSites :many
SELECT site_id, site_name, site_address, lat_dec, long_dec
FROM sites
WHERE ($1::text IS NULL
   OR site_id ILIKE $1::text
   OR site_name ILIKE $1::text
   OR site_address ILIKE $1::text)
ORDER BY site_id
`

// ListSites filters on id, name or address when search is non-nil.
func (q *Queries) ListSites(ctx context.Context, search *string) ([]Site, error) {
	rows, err := q.db.Query(ctx, listSites, containsPattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Site
	for rows.Next() {
		var i Site
		if err := rows.Scan(&i.SiteID, &i.SiteName, &i.SiteAddress, &i.LatDec, &i.LongDec); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSite = `-- name: GetSite :one
SELECT site_id, site_name, site_address, lat_dec, long_dec
FROM sites
WHERE site_id = $1
`

func (q *Queries) GetSite(ctx context.Context, siteID string) (Site, error) {
	row := q.db.QueryRow(ctx, getSite, siteID)
	var i Site
	err := row.Scan(&i.SiteID, &i.SiteName, &i.SiteAddress, &i.LatDec, &i.LongDec)
	return i, err
}

const createSite = `-- name: CreateSite :one
INSERT INTO sites (site_id, site_name, site_address, lat_dec, long_dec)
VALUES ($1, $2, $3, $4, $5)
RETURNING site_id, site_name, site_address, lat_dec, long_dec
`

type CreateSiteParams struct {
	SiteID      string
	SiteName    *string
	SiteAddress *string
	LatDec      *float64
	LongDec     *float64
}

func (q *Queries) CreateSite(ctx context.Context, arg CreateSiteParams) (Site, error) {
	row := q.db.QueryRow(ctx, createSite, arg.SiteID, arg.SiteName, arg.SiteAddress, arg.LatDec, arg.LongDec)
	var i Site
	err := row.Scan(&i.SiteID, &i.SiteName, &i.SiteAddress, &i.LatDec, &i.LongDec)
	return i, err
}

const updateSite = `-- name: UpdateSite :one
UPDATE sites
SET site_name = $2,
    site_address = $3,
    lat_dec = $4,
    long_dec = $5
WHERE site_id = $1
RETURNING site_id, site_name, site_address, lat_dec, long_dec
`

type UpdateSiteParams struct {
	SiteID      string
	SiteName    *string
	SiteAddress *string
	LatDec      *float64
	LongDec     *float64
}

func (q *Queries) UpdateSite(ctx context.Context, arg UpdateSiteParams) (Site, error) {
	row := q.db.QueryRow(ctx, updateSite, arg.SiteID, arg.SiteName, arg.SiteAddress, arg.LatDec, arg.LongDec)
	var i Site
	err := row.Scan(&i.SiteID, &i.SiteName, &i.SiteAddress, &i.LatDec, &i.LongDec)
	return i, err
}

const deleteSite = `-- name: DeleteSite :execrows
DELETE FROM sites
WHERE site_id = $1
`

func (q *Queries) DeleteSite(ctx context.Context, siteID string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSite, siteID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const siteExists = `-- name: SiteExists :one
SELECT EXISTS (SELECT 1 FROM sites WHERE site_id = $1)
`

func (q *Queries) SiteExists(ctx context.Context, siteID string) (bool, error) {
	row := q.db.QueryRow(ctx, siteExists, siteID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
