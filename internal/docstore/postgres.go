package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents as JSONB rows in a single documents table.
type Postgres struct {
	pool *pgxpool.Pool
}

// PoolOptions tunes the pgx connection pool.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewPostgres connects and pings a pool for dsn.
func NewPostgres(ctx context.Context, dsn string, opts PoolOptions) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	poolConfig.MinConns = int32(opts.MinConns)
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

const upsertSQL = `
INSERT INTO documents (collection, key, data, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, key) DO UPDATE
SET data = documents.data || EXCLUDED.data,
    updated_at = now()`

func (p *Postgres) Upsert(ctx context.Context, collection, key string, doc Document) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, key, err)
	}
	if _, err := p.pool.Exec(ctx, upsertSQL, collection, key, payload); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	return nil
}

const getSQL = `SELECT data FROM documents WHERE collection = $1 AND key = $2`

func (p *Postgres) Get(ctx context.Context, collection, key string) (Record, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, getSQL, collection, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	doc, err := decodeJSON(raw)
	if err != nil {
		return Record{}, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return Record{Key: key, Doc: doc}, nil
}

const listSQL = `
SELECT key, data FROM documents
WHERE collection = $1
ORDER BY data->>$2 ASC NULLS LAST, key ASC`

func (p *Postgres) List(ctx context.Context, collection, orderBy string) ([]Record, error) {
	rows, err := p.pool.Query(ctx, listSQL, collection, orderBy)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc, err := decodeJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
		}
		out = append(out, Record{Key: key, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func decodeJSON(raw []byte) (Document, error) {
	doc := Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var _ Store = (*Postgres)(nil)
