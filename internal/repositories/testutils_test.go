package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/gumshoe/internal/sqlite"
	"github.com/myrjola/gumshoe/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a new in-memory database with the application schema for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		require.NoError(t, dbs.Close())
	})
	return dbs
}
