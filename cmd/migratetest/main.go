package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/sqlite"
	"github.com/myrjola/gumshoe/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("GUMSHOE_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "GUMSHOE_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// A copy of the production database has finished cases. Losing them in the migration means data loss.
	row := db.ReadWrite.QueryRowContext(ctx, `SELECT COUNT(*) FROM case_runs`)
	var count int
	if err = row.Scan(&count); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error fetching case run count", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no case runs found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "case run count", slog.Int("count", count))

	if _, err = db.ReadOnly.ExecContext(ctx, `SELECT player_id, enabled, model, voice FROM voice_settings LIMIT 1`); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error reading voice settings", errors.SlogError(err))
		os.Exit(1)
	}

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
