package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio-studio/folio-backend/config"
	"github.com/folio-studio/folio-backend/internal/storage/postgres"
)

type DBOptions struct {
	DSN       string
	MaxConns  int32
	ConnectTO time.Duration
	PingTO    time.Duration
}

// OpenPool opens the pgx pool behind the health check.
func OpenPool(ctx context.Context, opt DBOptions) (*pgxpool.Pool, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	pcfg, err := pgxpool.ParseConfig(opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("db config: %w", err)
	}
	if opt.MaxConns > 0 {
		pcfg.MaxConns = opt.MaxConns
	}

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(cctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
	defer pcancel()

	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return pool, nil
}

// OpenDatabases opens the database/sql pool used by the repositories and a
// small pgx pool for health checks.
func OpenDatabases(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, *pgxpool.Pool, error) {
	db, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, err := OpenPool(ctx, DBOptions{DSN: cfg.DSN, MaxConns: 2})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, pool, nil
}
