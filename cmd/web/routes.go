package main

import (
	"io/fs"
	"net/http"

	"github.com/justinas/alice"
	"github.com/myrjola/gumshoe/ui"
)

func (app *application) routes(cfg config) http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(ui.Files, "static")
	if err != nil {
		panic(err) // The directory is embedded at compile time.
	}
	cached := alice.New(cacheForeverHeaders)
	mux.Handle("GET /static/", cached.Then(http.StripPrefix("/static", http.FileServerFS(static))))
	// Only the images of the data directory are public, the case documents would spoil the game.
	mux.Handle("GET /images/", cached.Then(http.FileServerFS(app.assets)))

	timed := alice.New(app.timeout)
	session := alice.New(app.sessionManager.LoadAndSave, app.identifyPlayer, noSurf(cfg.SecureCookies), commonContext)

	mux.Handle("GET /{$}", timed.Extend(session).ThenFunc(app.game))
	mux.Handle("POST /cases/start", timed.Extend(session).ThenFunc(app.startCase))
	mux.Handle("POST /actions/{actionID}", timed.Extend(session).ThenFunc(app.performAction))
	mux.Handle("GET /travel", timed.Extend(session).ThenFunc(app.travelOptions))
	mux.Handle("POST /travel", timed.Extend(session).ThenFunc(app.travel))
	mux.Handle("POST /evidence", timed.Extend(session).ThenFunc(app.setEvidence))
	mux.Handle("POST /warrant", timed.Extend(session).ThenFunc(app.issueWarrant))
	mux.Handle("POST /capture", timed.Extend(session).ThenFunc(app.attemptCapture))
	mux.Handle("GET /settings/voice", timed.Extend(session).ThenFunc(app.voiceSettings))
	mux.Handle("POST /settings/voice", timed.Extend(session).ThenFunc(app.saveVoiceSettings))
	mux.Handle("GET /api/snapshot", timed.Extend(session).ThenFunc(app.snapshot))
	mux.Handle("GET /api/healthy", timed.ThenFunc(app.healthy))

	// Audio outlives the write timeout so it stays outside the timeout handler.
	mux.Handle("GET /dialogue/{dialogueID}/audio", session.ThenFunc(app.dialogueAudio))

	mux.Handle("/", timed.Extend(session).ThenFunc(app.notFound))

	return alice.New(app.recoverPanic, app.logRequest, secureHeaders).Then(mux)
}
