// Package duckdb opens DuckDB-backed warehouse connections. An empty path
// opens an in-memory database, which is mostly useful in tests.
package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/tablefetch/tablefetch/internal/warehouse/sqlconn"
)

type Config struct {
	Path     string
	ReadOnly bool
}

func Open(cfg Config) (*sqlconn.Conn, error) {
	dsn := cfg.Path
	if dsn != "" && cfg.ReadOnly {
		dsn += "?access_mode=read_only"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb warehouse: %w", err)
	}
	return sqlconn.New(db)
}
