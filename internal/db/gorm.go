package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paysync-server/internal/models"
)

// GormDB backs the write path: the dedup gate and schema migration.
type GormDB struct {
	DB *gorm.DB
}

func ConnectGorm(ctx context.Context, databaseURL string, opts PoolOptions, log *slog.Logger) (*GormDB, error) {
	opts = opts.withDefaults()
	gormDB, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm db: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(opts.WriteMaxConns)
	sqlDB.SetMaxIdleConns((opts.WriteMaxConns + 1) / 2)
	sqlDB.SetConnMaxIdleTime(opts.MaxConnIdle)

	ctxPing, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctxPing); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping gorm db: %w", err)
	}

	return &GormDB{DB: gormDB}, nil
}

// NewGormLogger routes gorm's warnings (slow queries, errors) through slog.
func NewGormLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// Migrate creates or updates the tables, including the unique index on
// payment_notifications.transaction_id.
func Migrate(ctx context.Context, gormDB *gorm.DB) error {
	if err := gormDB.WithContext(ctx).AutoMigrate(&models.PaymentNotification{}, &models.User{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (g *GormDB) Close() {
	if g == nil || g.DB == nil {
		return
	}

	sqlDB, err := g.DB.DB()
	if err != nil {
		return
	}

	_ = sqlDB.Close()
}
