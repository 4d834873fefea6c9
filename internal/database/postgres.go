package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// NewPostgresPool opens the pool behind tests, question sets and submissions.
// Sessions are tagged with AppName so they can be told apart in
// pg_stat_activity, and the pool's connection counts are exported as gauges.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = config.AppName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", poolCfg.ConnConfig.Host, err)
	}

	registerPoolStats(pool)

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Int32("open_conns", pool.Stat().TotalConns()).
		Msg("PostgreSQL connected")
	return pool, nil
}

// registerPoolStats exports acquired, idle and total connection counts. Only
// the first pool opened in a process is exported.
func registerPoolStats(pool *pgxpool.Pool) {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(read(pool.Stat()))
		})
	}
	for _, c := range []prometheus.Collector{
		gauge("db_pool_acquired_conns", "Connections currently checked out of the pool", (*pgxpool.Stat).AcquiredConns),
		gauge("db_pool_idle_conns", "Idle connections held by the pool", (*pgxpool.Stat).IdleConns),
		gauge("db_pool_total_conns", "All connections held by the pool", (*pgxpool.Stat).TotalConns),
	} {
		_ = metrics.Registry.Register(c)
	}
}
