package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a pgx-backed key/value backend for deployments that already
// carry a relational database. Records live in a single two-column table.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// DefaultPostgresTable is the table used when none is configured.
const DefaultPostgresTable = "client_session_kv"

// NewPostgres creates a postgres-backed backend. An empty table name falls
// back to DefaultPostgresTable.
func NewPostgres(pool *pgxpool.Pool, table string) *Postgres {
	if table == "" {
		table = DefaultPostgresTable
	}
	return &Postgres{pool: pool, table: table}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pgx.Identifier{p.table}.Sanitize())
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, pgx.Identifier{p.table}.Sanitize())

	var value string
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get: %w", err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		pgx.Identifier{p.table}.Sanitize())

	if _, err := p.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, pgx.Identifier{p.table}.Sanitize())

	if _, err := p.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}
