package main

import (
	"net/http"
	"strings"

	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/errors"
)

// evidenceFormPrefix prefixes the evidence field IDs in form values.
const evidenceFormPrefix = "evidence-"

func (app *application) startCase(w http.ResponseWriter, r *http.Request) {
	caseID := strings.TrimSpace(r.PostFormValue("case_id"))
	if caseID == "" {
		caseID = app.catalog.DefaultID()
	}
	bundle, err := app.catalog.Bundle(caseID)
	if errors.Is(err, casefile.ErrUnknownCase) {
		app.clientError(w, r, http.StatusNotFound, "unknown case "+caseID)
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if _, err = app.execute(r, "start", func(*engine.Session) (*engine.Session, engine.Result) {
		return engine.Start(bundle)
	}); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.seeGame(w, r)
}

func (app *application) performAction(w http.ResponseWriter, r *http.Request) {
	actionID := r.PathValue("actionID")
	app.executeAndSeeGame(w, r, "perform_action", func(game *engine.Session) (*engine.Session, engine.Result) {
		return game, game.PerformAction(actionID)
	})
}

func (app *application) travelOptions(w http.ResponseWriter, r *http.Request) {
	var panel travelPanel
	if _, err := app.execute(r, "travel_options", func(game *engine.Session) (*engine.Session, engine.Result) {
		options, hint, result := game.TravelOptions()
		panel = travelPanel{Hint: hint, Options: options}
		return game, result
	}); err != nil {
		app.serverError(w, r, err)
		return
	}

	data, err := app.gameTemplateData(r, &panel)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "game", "travel", data)
}

func (app *application) travel(w http.ResponseWriter, r *http.Request) {
	destination := strings.TrimSpace(r.PostFormValue("destination"))
	if destination == "" {
		app.clientError(w, r, http.StatusBadRequest, "missing destination")
		return
	}
	app.executeAndSeeGame(w, r, "travel", func(game *engine.Session) (*engine.Session, engine.Result) {
		return game, game.Travel(destination)
	})
}

// setEvidence applies the submitted evidence form fields. Fields left out of the form keep their selection.
func (app *application) setEvidence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed form")
		return
	}
	app.executeAndSeeGame(w, r, "set_evidence", func(game *engine.Session) (*engine.Session, engine.Result) {
		result := engine.Result{Accepted: true, Status: game.State().Status}
		for _, field := range game.Bundle().Suspects.Fields {
			values, ok := r.PostForm[evidenceFormPrefix+field.ID]
			if !ok || len(values) == 0 {
				continue
			}
			if fieldResult := game.SetEvidence(field.ID, values[0]); !fieldResult.Accepted {
				result = fieldResult
			}
		}
		return game, result
	})
}

// issueWarrant checks the submitted evidence form against the suspect database. The form replaces the
// evidence selection.
func (app *application) issueWarrant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed form")
		return
	}
	selected := map[string]string{}
	for key, values := range r.PostForm {
		if fieldID, ok := strings.CutPrefix(key, evidenceFormPrefix); ok && len(values) > 0 {
			selected[fieldID] = values[0]
		}
	}
	app.executeAndSeeGame(w, r, "issue_warrant", func(game *engine.Session) (*engine.Session, engine.Result) {
		return game, game.IssueWarrant(selected)
	})
}

func (app *application) attemptCapture(w http.ResponseWriter, r *http.Request) {
	app.executeAndSeeGame(w, r, "attempt_capture", func(game *engine.Session) (*engine.Session, engine.Result) {
		return game, game.AttemptCapture()
	})
}

func (app *application) executeAndSeeGame(w http.ResponseWriter, r *http.Request, name string, cmd command) {
	if _, err := app.execute(r, name, cmd); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.seeGame(w, r)
}
