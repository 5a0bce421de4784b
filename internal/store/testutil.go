package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestStore opens an in-memory store closed by t.Cleanup.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// NewTestStoreFile opens a file-backed store in t.TempDir(). Use it when a
// test reopens the database.
func NewTestStoreFile(t testing.TB) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}
