package main

import (
	"net/http"

	"github.com/myrjola/gumshoe/internal/contexthelpers"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
)

type travelPanel struct {
	Hint    string
	Options []engine.TravelChoice
}

type gameTemplateData struct {
	BaseTemplateData
	Snapshot engine.Snapshot
	Cases    []models.ManifestEntry
	// Travel is shown when the player asked for flights.
	Travel          *travelPanel
	VoiceStatus     string
	SpeakDialogueID string
	// Runs are the latest finished cases of the player, newest first.
	Runs []models.CaseRun
}

const recentRunsLimit = 5

// game renders the case the player is investigating, starting the default case on the first visit.
func (app *application) game(w http.ResponseWriter, r *http.Request) {
	data, err := app.gameTemplateData(r, nil)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "game", "", data)
}

func (app *application) gameTemplateData(r *http.Request, travel *travelPanel) (gameTemplateData, error) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)

	p, unlock := app.players.lock(playerID)
	game, started, err := app.loadGame(ctx, p)
	if err != nil {
		unlock()
		return gameTemplateData{}, errors.Wrap(err, "load game")
	}
	snapshot := game.Snapshot()
	failure := p.takeVoiceStatus()
	if started != nil {
		app.speakResult(ctx, p, playerID, *started)
	}
	unlock()

	settings, err := app.settings.Get(ctx, playerID)
	if err != nil {
		return gameTemplateData{}, errors.Wrap(err, "get voice settings")
	}
	voiceStatus := settings.StatusText()
	if failure != "" {
		voiceStatus = failure
	}
	runs, err := app.caseRuns.ListRecent(ctx, playerID, recentRunsLimit)
	if err != nil {
		return gameTemplateData{}, errors.Wrap(err, "list case runs")
	}
	speakDialogueID := app.sessionManager.PopString(ctx, string(speakSessionKey))
	if speakDialogueID != snapshot.Dialogue.ID {
		speakDialogueID = ""
	}

	return gameTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Snapshot:         snapshot,
		Cases:            app.catalog.Entries(),
		Travel:           travel,
		VoiceStatus:      voiceStatus,
		SpeakDialogueID:  speakDialogueID,
		Runs:             runs,
	}, nil
}
