// Package migrations embeds the goose SQL migrations for every database backend.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed clickhouse/*.sql
var clickhouseFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// ClickHouse returns the ClickHouse migrations rooted at the migration files.
func ClickHouse() fs.FS {
	sub, _ := fs.Sub(clickhouseFS, "clickhouse")
	return sub
}

// SQLite returns the SQLite migrations rooted at the migration files.
func SQLite() fs.FS {
	sub, _ := fs.Sub(sqliteFS, "sqlite")
	return sub
}

// NewProvider returns a goose provider for backend ("sqlite" or "clickhouse") over db.
func NewProvider(backend string, db *sql.DB) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		fsys    fs.FS
	)
	switch backend {
	case "sqlite":
		dialect, fsys = goose.DialectSQLite3, SQLite()
	case "clickhouse":
		dialect, fsys = goose.DialectClickHouse, ClickHouse()
	default:
		return nil, fmt.Errorf("no migrations for backend %q", backend)
	}
	return goose.NewProvider(dialect, db, fsys)
}
