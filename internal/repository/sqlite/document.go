package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops implementing repository.DocumentRepository, this line fails to compile.
var _ repository.DocumentRepository = (*DB)(nil)

// upsertDocument inserts or replaces one document.
// ON CONFLICT ... DO UPDATE keeps the row (and its primary key) instead of deleting it.
const upsertDocument = `
	INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Get returns the document stored under key.
//
// sql.ErrNoRows is translated into apperror.NotFound so callers can tell
// "never written" apart from a real database failure.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("document", key)
		}
		return nil, fmt.Errorf("sqlite: getting document %s: %w", key, err)
	}
	return value, nil
}

// Put creates or replaces the document under key.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	if _, err := db.conn.ExecContext(ctx, upsertDocument, key, value); err != nil {
		return fmt.Errorf("sqlite: putting document %s: %w", key, err)
	}
	return nil
}

// PutAll writes every document in a single transaction.
//
// TRANSACTIONS:
// BeginTx starts a transaction; nothing is visible to other readers until Commit.
// The deferred Rollback is a no-op after a successful Commit, and undoes every
// write if we return early with an error.
func (db *DB) PutAll(ctx context.Context, docs map[string][]byte) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Sorted keys keep the write order deterministic.
	for _, key := range slices.Sorted(maps.Keys(docs)) {
		if _, err := tx.ExecContext(ctx, upsertDocument, key, docs[key]); err != nil {
			return fmt.Errorf("sqlite: putting document %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing documents: %w", err)
	}
	return nil
}

// Clear removes every document.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("sqlite: clearing documents: %w", err)
	}
	return nil
}
