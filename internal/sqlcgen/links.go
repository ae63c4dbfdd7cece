package sqlcgen

import "context"

const linkColumns = `link_id, appl_id, client_id, site_from, site_to, freq, freq_pair, bandwidth, model`

func scanLink(row interface{ Scan(dest ...any) error }, i *Link) error {
	return row.Scan(
		&i.LinkID,
		&i.ApplID,
		&i.ClientID,
		&i.SiteFrom,
		&i.SiteTo,
		&i.Freq,
		&i.FreqPair,
		&i.Bandwidth,
		&i.Model,
	)
}

const listLinks = `-- name: ListLinks :many
SELECT l.link_id, l.appl_id, l.client_id, l.site_from, l.site_to, l.freq, l.freq_pair, l.bandwidth, l.model
FROM links l
LEFT JOIN sites sf ON sf.site_id = l.site_from
LEFT JOIN sites st ON st.site_id = l.site_to
WHERE ($1::bigint IS NULL OR l.client_id = $1::bigint)
  AND ($2::text IS NULL
    OR l.appl_id ILIKE $2::text
    OR l.model ILIKE $2::text
    OR l.site_from ILIKE $2::text
    OR l.site_to ILIKE $2::text
    OR sf.site_name ILIKE $2::text
    OR st.site_name ILIKE $2::text)
ORDER BY l.link_id
`

type ListLinksParams struct {
	ClientID *int64
	// Search matches appl_id, model, or either endpoint's id or name.
	Search *string
}

func (q *Queries) ListLinks(ctx context.Context, arg ListLinksParams) ([]Link, error) {
	rows, err := q.db.Query(ctx, listLinks, arg.ClientID, containsPattern(arg.Search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Link
	for rows.Next() {
		var i Link
		if err := scanLink(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLink = `-- name: GetLink :one
SELECT ` + linkColumns + `
FROM links
WHERE link_id = $1
`

func (q *Queries) GetLink(ctx context.Context, linkID int64) (Link, error) {
	row := q.db.QueryRow(ctx, getLink, linkID)
	var i Link
	err := scanLink(row, &i)
	return i, err
}

const createLink = `-- name: CreateLink :one
INSERT INTO links (appl_id, client_id, site_from, site_to, freq, freq_pair, bandwidth, model)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + linkColumns

type CreateLinkParams struct {
	ApplID    *string
	ClientID  *int64
	SiteFrom  *string
	SiteTo    *string
	Freq      *int32
	FreqPair  *int32
	Bandwidth *int32
	Model     *string
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error) {
	row := q.db.QueryRow(ctx, createLink,
		arg.ApplID,
		arg.ClientID,
		arg.SiteFrom,
		arg.SiteTo,
		arg.Freq,
		arg.FreqPair,
		arg.Bandwidth,
		arg.Model,
	)
	var i Link
	err := scanLink(row, &i)
	return i, err
}

const updateLink = `-- name: UpdateLink :one
UPDATE links
SET appl_id = $2,
    client_id = $3,
    site_from = $4,
    site_to = $5,
    freq = $6,
    freq_pair = $7,
    bandwidth = $8,
    model = $9
WHERE link_id = $1
RETURNING ` + linkColumns

type UpdateLinkParams struct {
	LinkID    int64
	ApplID    *string
	ClientID  *int64
	SiteFrom  *string
	SiteTo    *string
	Freq      *int32
	FreqPair  *int32
	Bandwidth *int32
	Model     *string
}

func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (Link, error) {
	row := q.db.QueryRow(ctx, updateLink,
		arg.LinkID,
		arg.ApplID,
		arg.ClientID,
		arg.SiteFrom,
		arg.SiteTo,
		arg.Freq,
		arg.FreqPair,
		arg.Bandwidth,
		arg.Model,
	)
	var i Link
	err := scanLink(row, &i)
	return i, err
}

const deleteLink = `-- name: DeleteLink :execrows
DELETE FROM links
WHERE link_id = $1
`

func (q *Queries) DeleteLink(ctx context.Context, linkID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteLink, linkID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const linkExists = `-- name: LinkExists :one
SELECT EXISTS (
  SELECT 1
  FROM links
  WHERE appl_id IS NOT DISTINCT FROM $1
    AND site_from = $2
    AND site_to = $3
)
`

type LinkExistsParams struct {
	ApplID   *string
	SiteFrom string
	SiteTo   string
}

func (q *Queries) LinkExists(ctx context.Context, arg LinkExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, linkExists, arg.ApplID, arg.SiteFrom, arg.SiteTo)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const reseedLinkSequence = `-- name: ReseedLinkSequence :exec
SELECT setval(
  pg_get_serial_sequence('links', 'link_id'),
  COALESCE((SELECT MAX(link_id) FROM links), 0) + 1,
  false
)
`

func (q *Queries) ReseedLinkSequence(ctx context.Context) error {
	_, err := q.db.Exec(ctx, reseedLinkSequence)
	return err
}

const listLinkEndpoints = `-- name: ListLinkEndpoints :many
SELECT l.link_id,
       l.appl_id,
       l.client_id,
       l.site_from,
       l.site_to,
       l.freq,
       l.freq_pair,
       l.bandwidth,
       l.model,
       c.client_name,
       sf.site_name AS from_site_name,
       sf.lat_dec AS from_lat,
       sf.long_dec AS from_lon,
       st.site_name AS to_site_name,
       st.lat_dec AS to_lat,
       st.long_dec AS to_lon
FROM links l
LEFT JOIN sites sf ON sf.site_id = l.site_from
LEFT JOIN sites st ON st.site_id = l.site_to
LEFT JOIN clients c ON c.client_id = l.client_id
WHERE ($1::bigint IS NULL OR l.client_id = $1::bigint)
ORDER BY l.link_id
`

func (q *Queries) ListLinkEndpoints(ctx context.Context, clientID *int64) ([]LinkEndpoint, error) {
	rows, err := q.db.Query(ctx, listLinkEndpoints, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LinkEndpoint
	for rows.Next() {
		var i LinkEndpoint
		if err := rows.Scan(
			&i.LinkID,
			&i.ApplID,
			&i.ClientID,
			&i.SiteFrom,
			&i.SiteTo,
			&i.Freq,
			&i.FreqPair,
			&i.Bandwidth,
			&i.Model,
			&i.ClientName,
			&i.FromSiteName,
			&i.FromLat,
			&i.FromLon,
			&i.ToSiteName,
			&i.ToLat,
			&i.ToLon,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
