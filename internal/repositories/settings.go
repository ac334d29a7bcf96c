package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/myrjola/gumshoe/internal/sqlite"
)

// SettingsRepository stores the voice settings of players.
type SettingsRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
}

func NewSettingsRepository(dbs *sqlite.Database, logger *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		readWrite: sqlx.NewDb(dbs.ReadWrite, "sqlite3"),
		readOnly:  sqlx.NewDb(dbs.ReadOnly, "sqlite3"),
		logger:    logger.With("source", "SettingsRepository"),
	}
}

// Get returns the voice settings of the player or the defaults when they have not saved any.
func (r *SettingsRepository) Get(ctx context.Context, playerID string) (models.VoiceSettings, error) {
	settings := models.DefaultVoiceSettings()
	stmt := `SELECT enabled, api_key, model, voice FROM voice_settings WHERE player_id = ?`
	if err := r.readOnly.GetContext(ctx, &settings, stmt, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultVoiceSettings(), nil
		}
		return models.VoiceSettings{}, errors.Wrap(err, "read voice settings", slog.String("player_id", playerID))
	}
	return settings, nil
}

// Save replaces the voice settings of the player. Empty model and voice fall back to the defaults.
func (r *SettingsRepository) Save(ctx context.Context, playerID string, settings models.VoiceSettings) error {
	if settings.Model == "" {
		settings.Model = models.DefaultSpeechModel
	}
	if settings.Voice == "" {
		settings.Voice = models.DefaultSpeechVoice
	}
	stmt := `INSERT INTO voice_settings (player_id, enabled, api_key, model, voice)
VALUES (:player_id, :enabled, :api_key, :model, :voice)
ON CONFLICT (player_id) DO UPDATE SET enabled = excluded.enabled,
                                      api_key = excluded.api_key,
                                      model   = excluded.model,
                                      voice   = excluded.voice`
	arg := map[string]any{
		"player_id": playerID,
		"enabled":   settings.Enabled,
		"api_key":   settings.APIKey,
		"model":     settings.Model,
		"voice":     settings.Voice,
	}
	if _, err := r.readWrite.NamedExecContext(ctx, stmt, arg); err != nil {
		return errors.Wrap(err, "save voice settings", slog.String("player_id", playerID))
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "saved voice settings", slog.String("player_id", playerID),
		slog.Bool("enabled", settings.Enabled), slog.String("voice", settings.Voice))
	return nil
}
