package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"momentum/internal/app"
	"momentum/internal/config"
	"momentum/internal/storage/ch"
	"momentum/internal/storage/sqlite"
	"momentum/migrations"
)

const usage = "Available commands: up, down, status, version, create <name>"

func main() {
	logger, err := app.NewLogger(getEnv("LOG_LEVEL", "info"), "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found, using existing environment variables")
	}

	// Get command from arguments (default to "up")
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	backend := getEnv("STORAGE_BACKEND", config.BackendSQLite)

	if command == "create" {
		if len(os.Args) < 3 {
			logger.Fatal("Usage: migrate create <migration_name>")
		}
		dir := filepath.Join("migrations", backend)
		if err := goose.Create(nil, dir, os.Args[2], "sql"); err != nil {
			logger.Fatal("Failed to create migration", zap.Error(err))
		}
		logger.Info("Created migration", zap.String("name", os.Args[2]), zap.String("dir", dir))
		return
	}

	db, err := openDB(backend)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("backend", backend), zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to database", zap.String("backend", backend))

	provider, err := migrations.NewProvider(backend, db)
	if err != nil {
		logger.Fatal("Failed to create migration provider", zap.Error(err))
	}

	if err := run(context.Background(), provider, command, logger); err != nil {
		logger.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// run executes one goose command against provider
func run(ctx context.Context, provider *goose.Provider, command string, logger *zap.Logger) error {
	logger.Info("Running migrations", zap.String("command", command))

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			logger.Info("Applied migration", zap.String("source", r.Source.Path), zap.Duration("duration", r.Duration))
		}
		logger.Info("Migrations completed successfully", zap.Int("applied", len(results)))
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return err
		}
		logger.Info("Rolled back migration", zap.String("source", result.Source.Path))
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			logger.Info("Migration",
				zap.Int64("version", s.Source.Version),
				zap.String("source", s.Source.Path),
				zap.String("state", string(s.State)),
				zap.Time("applied_at", s.AppliedAt),
			)
		}
	case "version":
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		logger.Info("Current migration version", zap.Int64("version", version))
	default:
		return fmt.Errorf("unknown command %q. %s", command, usage)
	}
	return nil
}

// openDB opens a database/sql handle for the backend from environment variables
func openDB(backend string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch backend {
	case config.BackendSQLite:
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			if path, err = sqlite.DefaultPath(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite3", path)
	case config.BackendClickHouse:
		port := 9000
		if p := os.Getenv("CLICKHOUSE_PORT"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
			}
			port = n
		}
		db, err = sql.Open("clickhouse", ch.DSN(
			getEnv("CLICKHOUSE_HOST", "localhost"),
			port,
			getEnv("CLICKHOUSE_DATABASE", "default"),
			getEnv("CLICKHOUSE_USER", "default"),
			os.Getenv("CLICKHOUSE_PASSWORD"),
			os.Getenv("CLICKHOUSE_USE_TLS") == "true",
		))
	default:
		return nil, fmt.Errorf("backend %q has no migrations", backend)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
