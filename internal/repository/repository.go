// Package repository declares the storage contracts the rest of the application
// depends on. Implementations live in sub-packages (see repository/sqlite).
package repository

import "context"

// DocumentRepository is a key-value medium for JSON documents.
//
// Each logical collection (pastes, folders, preferences, ...) is one document
// stored under its own key. Values are opaque bytes; encoding is the caller's concern.
type DocumentRepository interface {
	// Get returns the document stored under key, or an apperror.ErrNotFound error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the document under key.
	Put(ctx context.Context, key string, value []byte) error

	// PutAll writes every document in docs, or none of them.
	PutAll(ctx context.Context, docs map[string][]byte) error

	// Clear removes every document.
	Clear(ctx context.Context) error
}
