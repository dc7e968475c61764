// Package app wires configuration, storage and services for the server and
// the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"paysync-server/internal/audit"
	"paysync-server/internal/config"
	"paysync-server/internal/db"
	"paysync-server/internal/ingest"
	"paysync-server/internal/paypal"
	"paysync-server/internal/repo"
	"paysync-server/internal/services"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *db.DB
	Gorm     *db.GormDB
	Users    *repo.UserRepo
	Store    *repo.NotificationStore
	Auth     *services.AuthService
	Sync     *services.SyncService
	Payments *services.PaymentService
}

// New opens both database handles, applies migrations and builds the
// services. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	poolOpts := PoolOptions(cfg)
	pool, err := db.Connect(ctx, cfg.DBURL, poolOpts)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.ConnectGorm(ctx, cfg.DBURL, poolOpts, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if err := db.Migrate(ctx, gormDB.DB); err != nil {
		pool.Close()
		gormDB.Close()
		return nil, err
	}

	recorder, err := audit.NewFileRecorder(cfg.AuditLogDir, logger)
	if err != nil {
		logger.Warn("audit log disabled", "dir", cfg.AuditLogDir, "error", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		DB:     pool,
		Gorm:   gormDB,
		Users:  repo.NewUserRepo(pool.Pool, cfg.RequestTimeout),
		Store:  repo.NewNotificationStore(gormDB.DB, cfg.Sync.Timeout),
	}

	a.Auth = services.NewAuthService(a.Users, services.AuthOptions{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
		Expiry:         cfg.JWTExpiry,
		PasswordMinLen: cfg.PasswordMinLen,
	})

	client := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Timeout:      cfg.PayPal.Timeout,
	})
	var rec audit.Recorder = audit.Nop{}
	if recorder != nil {
		rec = recorder
	}
	a.Payments = services.NewPaymentService(repo.NewPaymentRepo(pool.Pool, cfg.RequestTimeout), rec)
	a.Sync = services.NewSyncService(client, ingest.NewNormalizer(logger), a.Store, rec, logger, services.SyncOptions{
		Lookback: cfg.Sync.Lookback,
		Timeout:  cfg.Sync.Timeout,
		PageSize: cfg.PayPal.PageSize,
		MaxPages: cfg.PayPal.MaxPages,
	})

	if err := cfg.RequirePayPal(); err != nil {
		logger.Warn("paypal credentials missing, sync will fail until configured", "error", err)
	}

	return a, nil
}

// PoolOptions maps the DB_* settings onto both pools.
func PoolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:      cfg.DBPool.MaxConns,
		MinConns:      cfg.DBPool.MinConns,
		MaxConnIdle:   cfg.DBPool.MaxConnIdle,
		HealthCheck:   cfg.DBPool.HealthCheck,
		WriteMaxConns: cfg.DBPool.WriteMaxConns,
	}
}

func (a *App) Close() {
	a.Gorm.Close()
	a.DB.Close()
}

// Seed creates the given users if their email is free.
func (a *App) Seed(ctx context.Context, seeds []db.SeedUser) (int, error) {
	created, err := db.EnsureSeedUsers(ctx, a.DB.Pool, a.Config.RequestTimeout, seeds)
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return created, nil
}
