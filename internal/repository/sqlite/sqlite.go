// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary and stores everything
// in a single file. There is no separate database server to run, which matches a
// local, single-user paste vault exactly.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes cross-compilation
// painful. modernc.org/sqlite is a pure Go translation of SQLite.
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary with go:embed and
// applied with goose on every start. goose records applied versions in its own
// table, so running the migrations twice is a no-op.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool and implements repository.DocumentRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/codesave.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// The pool is limited to one connection. SQLite allows a single writer anyway,
// and with ":memory:" every extra connection would see its own empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works. Without it, a bad path or a
	// permissions problem would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
//
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/codesave.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies every embedded migration that has not run yet.
func (db *DB) migrate() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
