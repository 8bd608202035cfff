// Package db owns the SQLite connection for the workshop database. The
// schema ships embedded in the binary and is applied on every open, so a
// fresh deployment needs nothing beyond a writable path.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// The API serves many concurrent readers against a single writer, so WAL
// is required; busy_timeout absorbs writer contention instead of
// surfacing SQLITE_BUSY to handlers.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
}

// Open opens (or creates) the database at path, applies the connection
// pragmas and the embedded schema, and sizes the pool. Pass maxOpen of 1
// for a :memory: database; every extra pooled connection would be a
// second, empty database.
func Open(path string, maxOpen, maxIdle int) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if maxOpen > 0 {
		conn.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		conn.SetMaxIdleConns(maxIdle)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return conn, nil
}
