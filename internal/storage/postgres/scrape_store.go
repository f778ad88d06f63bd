// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/site-scraper/internal/crawler"
)

const defaultTable = "scrapes"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ScrapeStoreConfig controls the Postgres connection pool used for ledger rows.
type ScrapeStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ScrapeStore writes one row per uploaded crawl result. Expected schema:
//
//	CREATE TABLE scrapes (
//		id            uuid PRIMARY KEY,
//		domain        text        NOT NULL,
//		started_url   text        NOT NULL,
//		pages_scraped integer     NOT NULL,
//		max_pages     integer     NOT NULL,
//		object_uri    text        NOT NULL,
//		created_at    timestamptz NOT NULL
//	);
type ScrapeStore struct {
	pool  execCloser
	table string
}

// NewScrapeStore creates a Postgres-backed ScrapeStore using the provided config.
func NewScrapeStore(ctx context.Context, cfg ScrapeStoreConfig) (*ScrapeStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ScrapeStore{pool: pool, table: table}, nil
}

// NewScrapeStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewScrapeStoreWithPool(pool execCloser, table string) (*ScrapeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ScrapeStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return defaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ScrapeStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordScrape inserts a ledger row into Postgres.
func (s *ScrapeStore) RecordScrape(ctx context.Context, record crawler.ScrapeRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("scrape store is not configured")
	}
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	domain,
	started_url,
	pages_scraped,
	max_pages,
	object_uri,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.table)

	args := []any{
		record.ID,
		record.Domain,
		record.StartedURL,
		record.PagesScraped,
		record.MaxPages,
		record.ObjectURI,
		record.CreatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scrape: %w", err)
	}
	return nil
}
