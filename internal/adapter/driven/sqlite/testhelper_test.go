package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	require.NoError(t, err, "create test db writer")
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	require.NoError(t, err, "create test db reader")
	reader.SetMaxOpenConns(4)

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	// The writer must hold the shared in-memory database open before the
	// reader connects, or the reader would see a fresh empty database.
	require.NoError(t, writer.PingContext(context.Background()), "ping test db writer")
	require.NoError(t, reader.PingContext(context.Background()), "ping test db reader")
	require.NoError(t, RunMigrations(db.Writer), "run migrations")

	return db
}
