// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adamscao/certwatch/internal/db"
)

// Open returns a migrated database in t's temp dir, closed on cleanup
func Open(t testing.TB) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "certwatch.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database))

	return database
}
