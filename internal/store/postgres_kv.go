package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable holds catalog entries in Postgres.
const DefaultTable = "catalog_kv"

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// querier is the part of pgxpool.Pool the backend needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresKV stores entries as rows of (key, value, updated_at). Quota
// caps the summed value size in bytes; zero or negative disables it.
type PostgresKV struct {
	db    querier
	table string
	Quota int64
}

// NewPool opens and pings a connection pool for databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// NewPostgresKV wraps db, using table (DefaultTable when empty).
func NewPostgresKV(db querier, table string, quota int64) (*PostgresKV, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidKey, table)
	}
	return &PostgresKV{db: db, table: pgx.Identifier{table}.Sanitize(), Quota: quota}, nil
}

// EnsureSchema creates the table when missing.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+p.table+` (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("kv.EnsureSchema: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	var value string
	err := p.db.QueryRow(ctx, `SELECT value FROM `+p.table+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("kv.Get: %w", err)
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if p.Quota > 0 {
		var used int64
		err := p.db.QueryRow(ctx,
			`SELECT COALESCE(SUM(octet_length(value)), 0) FROM `+p.table+` WHERE key <> $1`, key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("kv.Set: %w", err)
		}
		if used+int64(len(value)) > p.Quota {
			return fmt.Errorf("%w: %q needs %d bytes, %d of %d in use", ErrQuotaExceeded, key, len(value), used, p.Quota)
		}
	}

	_, err := p.db.Exec(ctx, `INSERT INTO `+p.table+` (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	if err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, `DELETE FROM `+p.table+` WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kv.Delete: %w", err)
	}
	return nil
}

var _ KV = (*PostgresKV)(nil)
