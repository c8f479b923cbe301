package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatabaseDSN(t *testing.T) {
	dsn := databaseDSN("retrifix.db")

	require.True(t, strings.HasPrefix(dsn, "file:retrifix.db?"))
	require.Contains(t, dsn, "_pragma=busy_timeout(5000)")
	require.Contains(t, dsn, "_pragma=journal_mode(WAL)")

	// mattn-style parameters are silently ignored by modernc.org/sqlite.
	require.NotContains(t, dsn, "_busy_timeout=")
	require.NotContains(t, dsn, "_journal_mode=")
}
