package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"momentum/internal/config"
	"momentum/internal/storage"
	"momentum/internal/storage/ch"
	"momentum/internal/storage/sqlite"
	"momentum/internal/storage/stubs"
)

// OpenStorage connects to the configured backend and initializes it
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	var db storage.Storage

	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage")
		db = stubs.NewMockDB()

	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			p, err := sqlite.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		logger.Info("Opening SQLite database", zap.String("path", path))
		sqliteDB, err := sqlite.NewSQLiteDB(path, logger)
		if err != nil {
			return nil, err
		}
		db = sqliteDB

	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
			logger,
		)
		if err != nil {
			return nil, err
		}
		db = clickhouseDB

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized successfully", zap.String("backend", cfg.StorageBackend))
	return db, nil
}
