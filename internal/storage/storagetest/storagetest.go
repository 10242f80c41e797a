// Package storagetest opens throwaway document stores for tests.
package storagetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/internal/storage/sqlite"
	"github.com/market-briefing/pkg/logger"
)

// NewRepository opens a migrated SQLite repository under t.TempDir()
func NewRepository(t testing.TB, opts ...sqlite.Option) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "briefing.db"), opts...)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// NewDocuments opens a fresh typed document store
func NewDocuments(t testing.TB, opts ...sqlite.Option) *storage.Documents {
	t.Helper()
	return storage.NewDocuments(NewRepository(t, opts...), logger.Nop())
}
