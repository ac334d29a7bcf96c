package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/myrjola/gumshoe/internal/contexthelpers"
	"github.com/myrjola/gumshoe/internal/models"
)

type voiceSettingsTemplateData struct {
	BaseTemplateData
	Settings models.VoiceSettings
	// HasAPIKey tells whether a key is stored. The key itself is never sent back to the browser.
	HasAPIKey bool
	Voices    []string
	Status    string
}

func (app *application) voiceSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := app.settings.Get(r.Context(), contexthelpers.PlayerID(r.Context()))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	data := voiceSettingsTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Settings:         settings,
		HasAPIKey:        settings.APIKey != "",
		Voices:           models.SpeechVoices,
		Status:           settings.StatusText(),
	}
	data.Settings.APIKey = ""
	app.render(w, r, http.StatusOK, "settings", "", data)
}

// saveVoiceSettings stores the voice form. An empty API key field keeps the stored key unless the player asks
// to forget it.
func (app *application) saveVoiceSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := contexthelpers.PlayerID(ctx)
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed form")
		return
	}

	current, err := app.settings.Get(ctx, playerID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	settings := models.VoiceSettings{
		Enabled: r.PostForm.Get("enabled") == "on",
		APIKey:  strings.TrimSpace(r.PostForm.Get("api_key")),
		Model:   strings.TrimSpace(r.PostForm.Get("model")),
		Voice:   r.PostForm.Get("voice"),
	}
	if settings.APIKey == "" && r.PostForm.Get("forget_api_key") != "on" {
		settings.APIKey = current.APIKey
	}
	if settings.Voice != "" && !slices.Contains(models.SpeechVoices, settings.Voice) {
		app.clientError(w, r, http.StatusBadRequest, "unknown voice "+settings.Voice)
		return
	}

	if err = app.settings.Save(ctx, playerID, settings); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(ctx, string(flashSessionKey), settings.SavedStatusText())
	http.Redirect(w, r, "/settings/voice", http.StatusSeeOther)
}
