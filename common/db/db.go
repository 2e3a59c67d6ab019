package db

import (
	"context"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"judge_engine/common/config"
	"judge_engine/common/db/models"
	"judge_engine/lib/logger"
)

// NewDB opens the run database and migrates the schema. The first connection
// is retried with exponential backoff within ConnectTimeout, so the engine
// may start before its database does. Judging itself never retries anything,
// this is bootstrap only.
func NewDB(ctx context.Context, cfg *config.DBConfig) (*gorm.DB, error) {
	db, err := backoff.Retry(
		ctx,
		func() (*gorm.DB, error) {
			return gorm.Open(dialector(cfg), &gorm.Config{})
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, logger.Error("Can not open %s database, error: %v", cfg.Driver, err)
	}
	if err = db.AutoMigrate(&models.Run{}); err != nil {
		return nil, logger.Error("Can not migrate Run, error: %v", err)
	}
	return db, nil
}

func dialector(cfg *config.DBConfig) gorm.Dialector {
	if cfg.InMemory {
		// The shared cache keeps one database across pooled connections.
		return sqlite.Open("file::memory:?cache=shared")
	}
	if cfg.Driver == "postgres" {
		return postgres.Open(cfg.Dsn)
	}
	return sqlite.Open(cfg.Dsn)
}
