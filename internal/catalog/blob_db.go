package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresBlob keeps the serialized catalog in one row of catalog_blobs, keyed by
// the same path a FileBlob would use. The body is stored as bytes so it round-trips
// unchanged.
type PostgresBlob struct {
	db  *sql.DB
	key string
}

func NewPostgresBlob(db *sql.DB, key string) *PostgresBlob {
	return &PostgresBlob{db: db, key: key}
}

// OpenPostgres opens a pgx-backed *sql.DB.
func OpenPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func (b *PostgresBlob) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := b.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS catalog_blobs (
				path       TEXT PRIMARY KEY,
				body       BYTEA NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (b *PostgresBlob) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return b.db.PingContext(ctx)
	})
}

func (b *PostgresBlob) Read(ctx context.Context) ([]byte, error) {
	var body []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return b.db.QueryRowContext(ctx, `
			SELECT body
			FROM catalog_blobs
			WHERE path = $1
		`, b.key).Scan(&body)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobMissing
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (b *PostgresBlob) Write(ctx context.Context, data []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := b.db.ExecContext(ctx, `
			INSERT INTO catalog_blobs (path, body, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (path) DO UPDATE
			SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		`, b.key, data)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
