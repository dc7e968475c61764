package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions sizes both connection pools. Zero fields keep the defaults.
type PoolOptions struct {
	MaxConns      int
	MinConns      int
	MaxConnIdle   time.Duration
	HealthCheck   time.Duration
	WriteMaxConns int
	PingTimeout   time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.MinConns < 0 || o.MinConns > o.MaxConns {
		o.MinConns = 1
	}
	if o.MaxConnIdle <= 0 {
		o.MaxConnIdle = 5 * time.Minute
	}
	if o.HealthCheck <= 0 {
		o.HealthCheck = time.Minute
	}
	if o.WriteMaxConns <= 0 {
		o.WriteMaxConns = 5
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	return o
}

// DB holds the pgx pool behind the payment and user reads.
type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, databaseURL string, opts PoolOptions) (*DB, error) {
	opts = opts.withDefaults()
	cfg, err := readPoolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func readPoolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	cfg.MaxConns = int32(opts.MaxConns)
	cfg.MinConns = int32(opts.MinConns)
	cfg.MaxConnIdleTime = opts.MaxConnIdle
	cfg.HealthCheckPeriod = opts.HealthCheck
	return cfg, nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}
