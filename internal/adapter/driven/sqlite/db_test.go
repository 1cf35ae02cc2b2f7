package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_FileBacked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storeadmin.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, path, db.Path())
	assert.NoError(t, db.Ping(ctx))

	var mode string
	require.NoError(t, db.Writer.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RunMigrations(db.Writer))

	var n int
	err := db.Reader.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = 'settings' AND name LIKE 'idx_%'").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2026-03-01 09:00:00", "2026-03-01T09:00:00Z", "2026-03-01T09:00:00+00:00"} {
		got, err := parseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, 9, got.Hour(), in)
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}
