package history

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool for the search history table.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore writes search records into Postgres.
type PostgresStore struct {
	pool  execCloser
	table string
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "job_searches"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool execCloser, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "job_searches"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Record inserts one search record.
func (s *PostgresStore) Record(ctx context.Context, rec SearchRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("history store is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	role,
	location,
	platforms,
	identity,
	total_listings,
	suggested_listings,
	searched_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	args := []any{
		rec.ID,
		rec.Role,
		rec.Location,
		strings.Join(rec.Platforms, ","),
		rec.Identity,
		rec.Total,
		rec.Suggested,
		rec.At,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert search record: %w", err)
	}
	return nil
}
