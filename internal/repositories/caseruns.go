package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/myrjola/gumshoe/internal/sqlite"
)

// CaseRunRepository keeps the history of finished cases.
type CaseRunRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
	now       func() time.Time
}

func NewCaseRunRepository(dbs *sqlite.Database, logger *slog.Logger) *CaseRunRepository {
	return &CaseRunRepository{
		readWrite: sqlx.NewDb(dbs.ReadWrite, "sqlite3"),
		readOnly:  sqlx.NewDb(dbs.ReadOnly, "sqlite3"),
		logger:    logger.With("source", "CaseRunRepository"),
		now:       time.Now,
	}
}

// Record stores a finished case and returns it with the ID and finishing time filled in.
func (r *CaseRunRepository) Record(ctx context.Context, run models.CaseRun) (models.CaseRun, error) {
	run.FinishedAt = r.now().UTC()
	stmt := `INSERT INTO case_runs (player_id, case_id, status, hours_remaining, finished_at)
VALUES (:player_id, :case_id, :status, :hours_remaining, :finished_at)`
	result, err := r.readWrite.NamedExecContext(ctx, stmt, run)
	if err != nil {
		return models.CaseRun{}, errors.Wrap(err, "insert case run", slog.String("case_id", run.CaseID),
			slog.String("status", run.Status))
	}
	if run.ID, err = result.LastInsertId(); err != nil {
		return models.CaseRun{}, errors.Wrap(err, "last insert id")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "recorded case run", slog.String("case_id", run.CaseID),
		slog.String("status", run.Status), slog.Int("hours_remaining", run.HoursRemaining))
	return run, nil
}

// ListRecent returns at most limit finished cases of the player, newest first.
func (r *CaseRunRepository) ListRecent(ctx context.Context, playerID string, limit int) ([]models.CaseRun, error) {
	runs := []models.CaseRun{}
	stmt := `SELECT id, player_id, case_id, status, hours_remaining, finished_at
FROM case_runs
WHERE player_id = ?
ORDER BY finished_at DESC, id DESC
LIMIT ?`
	if err := r.readOnly.SelectContext(ctx, &runs, stmt, playerID, limit); err != nil {
		return nil, errors.Wrap(err, "select case runs", slog.String("player_id", playerID))
	}
	return runs, nil
}
