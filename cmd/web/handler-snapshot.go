package main

import (
	"encoding/json"
	"net/http"

	"github.com/myrjola/gumshoe/internal/contexthelpers"
	"github.com/myrjola/gumshoe/internal/errors"
)

// snapshot responds with the current case of the player as JSON.
func (app *application) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, unlock := app.players.lock(contexthelpers.PlayerID(ctx))
	game, _, err := app.loadGame(ctx, p)
	if err != nil {
		unlock()
		app.serverError(w, r, err)
		return
	}
	snapshot := game.Snapshot()
	unlock()

	body, err := json.Marshal(snapshot)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal snapshot"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
