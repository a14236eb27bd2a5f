// Package sqlite implements repository.Store on an embedded SQLite database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and the
// binary cross-compiles like any other Go program. The whole database lives
// in one file next to the server (or in memory for tests).
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB  : a connection pool (NOT a single connection!)
//   - sql.Tx  : a transaction, used for token rotation
//   - sql.Rows: multiple result rows (must be closed!)
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/otayori/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/otayori.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// IN-MEMORY POOLS:
// Every new connection to ":memory:" gets its OWN empty database. A pool that
// opened a second connection would suddenly see no tables at all, so for
// in-memory databases the pool is pinned to a single connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets staff reads proceed while a student submission is being written.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Concurrent writers wait up to 5s for the lock instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
//
// SCHEMA NOTES:
//   - Dates (start_date, end_date) are TEXT "YYYY-MM-DD". ISO dates sort the
//     same way as strings, so the open-window filter is a plain comparison.
//   - messages.theme_id has NO foreign key: a message may point at a theme id
//     that does not exist, and that is accepted as-is.
//   - access_tokens.slot is UNIQUE and CHECKed to 1, so the table can never
//     hold more than one row, whatever the application code does.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS themes (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT,
			start_date  TEXT,
			end_date    TEXT,
			created_at  DATETIME NOT NULL,
			is_active   INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_themes_active_created ON themes(is_active, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating themes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id           TEXT PRIMARY KEY,
			sender_name  TEXT,
			radio_name   TEXT NOT NULL,
			school_class TEXT,
			theme_id     TEXT,
			content      TEXT NOT NULL,
			share_name   INTEGER NOT NULL DEFAULT 0,
			share_class  INTEGER NOT NULL DEFAULT 0,
			share_theme  INTEGER NOT NULL DEFAULT 0,
			ip_address   TEXT,
			created_at   DATETIME NOT NULL,
			is_read      INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS access_tokens (
			id         TEXT PRIMARY KEY,
			token      TEXT NOT NULL UNIQUE,
			slot       INTEGER NOT NULL DEFAULT 1 UNIQUE CHECK (slot = 1),
			created_at DATETIME NOT NULL,
			is_active  INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating access_tokens table: %w", err)
	}

	return nil
}
