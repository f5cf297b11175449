package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codesave/internal/apperror"
)

// newTestDB opens a fresh in-memory database. Each test gets its own, and
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGet_Missing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)

	v, err := db.Get(context.Background(), "pastes")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, v)
}

func TestPutThenGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, "pastes", []byte(`[]`)))

	v, err := db.Get(ctx, "pastes")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
}

func TestPut_Overwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, "userData", []byte(`{"name":"old"}`)))
	require.NoError(t, db.Put(ctx, "userData", []byte(`{"name":"new"}`)))

	v, err := db.Get(ctx, "userData")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"new"}`, string(v))
}

func TestPutAll_WritesEveryKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, "folders", []byte(`[{"id":"f1","name":"Work"}]`)))
	require.NoError(t, db.PutAll(ctx, map[string][]byte{
		"pastes":          []byte(`[{"id":"a"}]`),
		"userPreferences": []byte(`{"darkMode":true}`),
	}))

	for key, want := range map[string]string{
		"pastes":          `[{"id":"a"}]`,
		"userPreferences": `{"darkMode":true}`,
		"folders":         `[{"id":"f1","name":"Work"}]`,
	} {
		v, err := db.Get(ctx, key)
		require.NoError(t, err, key)
		assert.JSONEq(t, want, string(v), key)
	}
}

func TestPutAll_CancelledContextWritesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.PutAll(ctx, map[string][]byte{"pastes": []byte(`[]`)})
	require.Error(t, err)

	_, err = db.Get(context.Background(), "pastes")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, "pastes", []byte(`[]`)))
	require.NoError(t, db.Clear(ctx))

	_, err := db.Get(ctx, "pastes")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codesave.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "users", []byte(`[]`)))
	require.NoError(t, db.Close())

	// Migrations must be idempotent on an existing file.
	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
}
