package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors" // v0.9.1
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldplan/allocator/pkg/types"
)

const (
	maxConnectAttempts = 3
	connectRetryBase   = time.Second
	pingTimeout        = 5 * time.Second
)

// NewConnection opens a PostgreSQL connection for the catalog/audit
// Repository, retrying a handful of times before giving up so a database
// that is still starting up (a common ordering issue in compose/k8s
// rollouts) doesn't fail the optimizer's own startup.
func NewConnection(cfg *types.DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database configuration is required")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, int(cfg.ConnTimeout.Seconds()))

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}
		if attempt < maxConnectAttempts {
			time.Sleep(time.Duration(attempt) * connectRetryBase)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to database after %d attempts", maxConnectAttempts)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}
