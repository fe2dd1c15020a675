package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect builds a pgx pool for the given DSN and verifies connectivity with
// a ping before returning it. DSNs written for other stacks are normalized,
// e.g. "postgresql+asyncpg://..." left over in .env files from the previous
// deployment.
func Connect(ctx context.Context, dsn string, opts ...func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: empty DSN")
	}

	cfg, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.MaxConns == 0 {
		cfg.MaxConns = 8
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.HealthCheckPeriod == 0 {
		cfg.HealthCheckPeriod = time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// normalizeDSN strips SQLAlchemy-style driver suffixes; pgx accepts both
// postgres:// and postgresql:// as-is.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	for _, pre := range []string{"postgresql", "postgres"} {
		for _, drv := range []string{"+asyncpg", "+pgx", "+psycopg"} {
			s = strings.Replace(s, pre+drv+"://", pre+"://", 1)
		}
	}
	return s
}
