package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const listClients = `-- name: ListClients :many
SELECT client_id, client_name
FROM clients
WHERE ($1::text IS NULL
   OR client_name ILIKE $1::text
   OR client_id::text ILIKE $1::text)
ORDER BY client_id
`

// ListClients returns every client, or those whose name or id contains
// search (case-insensitive) when it is non-nil.
func (q *Queries) ListClients(ctx context.Context, search *string) ([]Client, error) {
	rows, err := q.db.Query(ctx, listClients, containsPattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Client
	for rows.Next() {
		var i Client
		if err := rows.Scan(&i.ClientID, &i.ClientName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getClient = `-- name: GetClient :one
SELECT client_id, client_name
FROM clients
WHERE client_id = $1
`

func (q *Queries) GetClient(ctx context.Context, clientID int64) (Client, error) {
	row := q.db.QueryRow(ctx, getClient, clientID)
	var i Client
	err := row.Scan(&i.ClientID, &i.ClientName)
	return i, err
}

const createClient = `-- name: CreateClient :one
INSERT INTO clients (client_name)
VALUES ($1)
RETURNING client_id, client_name
`

func (q *Queries) CreateClient(ctx context.Context, clientName string) (Client, error) {
	row := q.db.QueryRow(ctx, createClient, clientName)
	var i Client
	err := row.Scan(&i.ClientID, &i.ClientName)
	return i, err
}

const updateClient = `-- name: UpdateClient :one
UPDATE clients
SET client_name = $2
WHERE client_id = $1
RETURNING client_id, client_name
`

type UpdateClientParams struct {
	ClientID   int64
	ClientName string
}

func (q *Queries) UpdateClient(ctx context.Context, arg UpdateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, updateClient, arg.ClientID, arg.ClientName)
	var i Client
	err := row.Scan(&i.ClientID, &i.ClientName)
	return i, err
}

const deleteClient = `-- name: DeleteClient :execrows
DELETE FROM clients
WHERE client_id = $1
`

func (q *Queries) DeleteClient(ctx context.Context, clientID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteClient, clientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const findClientIDByName = `-- name: FindClientIDByName :one
SELECT client_id
FROM clients
WHERE client_name = $1
ORDER BY client_id
LIMIT 1
`

func (q *Queries) FindClientIDByName(ctx context.Context, clientName string) (int64, error) {
	row := q.db.QueryRow(ctx, findClientIDByName, clientName)
	var id int64
	err := row.Scan(&id)
	return id, err
}

// Serial columns drift behind MAX(id) when rows are inserted with explicit
// ids (e.g. restored dumps). Re-aligning before inserts avoids duplicate keys.
const reseedClientSequence = `-- name: ReseedClientSequence :exec
SELECT setval(
  pg_get_serial_sequence('clients', 'client_id'),
  COALESCE((SELECT MAX(client_id) FROM clients), 0) + 1,
  false
)
`

func (q *Queries) ReseedClientSequence(ctx context.Context) error {
	_, err := q.db.Exec(ctx, reseedClientSequence)
	return err
}
