package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ai-workflow-hub/backend/internal/config"
	"ai-workflow-hub/backend/internal/logging"
)

// Storage drivers accepted by storage.driver.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// Open builds the Repository selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Repository, error) {
	switch cfg.Storage.Driver {
	case DriverPostgres, "":
		pool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		if cfg.Storage.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info("Database schema applied")
		}
		return store, nil
	case DriverBadger:
		logger.Debug("Opening badger store", "path", cfg.Storage.BadgerPath)
		return OpenBadgerStore(cfg.Storage.BadgerPath)
	case DriverMemory:
		logger.Warn("Using in-memory store, data will not survive a restart")
		return OpenBadgerStore("")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection", "host", cfg.DB.Host, "db", cfg.DB.Name)

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
