package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/myrjola/gumshoe/internal/contexthelpers"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/logging"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/myrjola/gumshoe/internal/speech"
	"github.com/myrjola/gumshoe/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// command changes the game of a player. It returns the session to keep, which is a new one when the command
// starts a case.
type command func(game *engine.Session) (*engine.Session, engine.Result)

// loadGame returns the live game of p, restoring it from the session store or starting the default case when
// the player has none. The result is non-nil when a case was started.
func (app *application) loadGame(ctx context.Context, p *player) (*engine.Session, *engine.Result, error) {
	if p.game != nil {
		return p.game, nil, nil
	}

	if progress, ok := app.sessionManager.Get(ctx, string(progressSessionKey)).(engine.Progress); ok {
		bundle, err := app.catalog.Bundle(progress.CaseID)
		if err == nil {
			var game *engine.Session
			if game, err = engine.Restore(bundle, progress); err == nil {
				p.game = game
				return game, nil, nil
			}
		}
		// The case may have been removed or changed since the progress was saved.
		app.logger.LogAttrs(ctx, slog.LevelWarn, "discarding saved progress",
			slog.String("case_id", progress.CaseID), errors.SlogError(err))
	}

	bundle, err := app.catalog.Bundle(app.catalog.DefaultID())
	if err != nil {
		return nil, nil, errors.Wrap(err, "default case")
	}
	game, result := engine.Start(bundle)
	p.game = game
	app.saveGame(ctx, game)
	return game, &result, nil
}

func (app *application) saveGame(ctx context.Context, game *engine.Session) {
	app.sessionManager.Put(ctx, string(progressSessionKey), game.Progress())
}

// execute runs cmd on the game of the request's player. Commands of one player never run concurrently.
func (app *application) execute(r *http.Request, name string, cmd command) (engine.Result, error) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)
	p, unlock := app.players.lock(playerID)
	defer unlock()

	game, _, err := app.loadGame(ctx, p)
	if err != nil {
		return engine.Result{}, errors.Wrap(err, "load game")
	}
	ctx = logging.WithAttrs(ctx, slog.String("case_id", game.Bundle().ID()))

	ctx, span := telemetry.Tracer("web").Start(ctx, "engine."+name, trace.WithAttributes(
		attribute.String("player_id", playerID),
		attribute.String("case_id", game.Bundle().ID()),
	))
	defer span.End()

	before := game.State().Status
	game, result := cmd(game)
	p.game = game
	app.saveGame(ctx, game)

	span.SetAttributes(
		attribute.Bool("accepted", result.Accepted),
		attribute.String("rejection", string(result.Rejection)),
		attribute.String("status", string(result.Status)),
		attribute.Int("hours_remaining", game.State().HoursRemaining),
	)
	app.logger.LogAttrs(ctx, slog.LevelDebug, "command executed", slog.String("command", name),
		slog.Bool("accepted", result.Accepted), slog.String("rejection", string(result.Rejection)))

	if before == engine.StatusPlaying && result.Status != engine.StatusPlaying {
		app.recordCaseRun(ctx, playerID, game)
	}
	app.speakResult(ctx, p, playerID, result)

	return result, nil
}

func (app *application) recordCaseRun(ctx context.Context, playerID string, game *engine.Session) {
	state := game.State()
	if _, err := app.caseRuns.Record(ctx, models.CaseRun{ //nolint:exhaustruct // filled in by Record.
		PlayerID:       playerID,
		CaseID:         game.Bundle().ID(),
		Status:         string(state.Status),
		HoursRemaining: state.HoursRemaining,
	}); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "failed to record case run", errors.SlogError(err))
	}
}

// speakResult queues the last dialogue of result for speech when the player has voice enabled. Earlier
// dialogues of the same command would be cut off by the last one anyway.
func (app *application) speakResult(ctx context.Context, p *player, playerID string, result engine.Result) {
	if len(result.Dialogues) == 0 {
		return
	}
	settings, err := app.settings.Get(ctx, playerID)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "failed to read voice settings", errors.SlogError(err))
		return
	}
	dialogue := result.Dialogues[len(result.Dialogues)-1]
	if app.players.speak(ctx, p, speech.Utterance{ID: dialogue.ID, Text: dialogue.Text, Settings: settings}) {
		app.sessionManager.Put(ctx, string(speakSessionKey), dialogue.ID)
	}
}
