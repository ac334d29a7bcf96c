package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/gumshoe/internal/errors"
)

const (
	// audioWait is how long the browser waits for the speech worker to start streaming a dialogue.
	audioWait         = 10 * time.Second
	audioPollInterval = 100 * time.Millisecond
)

// dialogueAudio streams the synthesized speech of a dialogue. The speech worker publishes the audio in the
// broker once it gets to the dialogue, so the handler polls until then.
func (app *application) dialogueAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dialogueID := r.PathValue("dialogueID")

	var chunks chan []byte
	deadline := time.Now().Add(audioWait)
	for chunks == nil {
		if c, ok := <-app.players.audio.Subscribe(dialogueID); ok {
			chunks = c
			break
		}
		if time.Now().After(deadline) {
			app.clientError(w, r, http.StatusNotFound, "no audio for dialogue")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(audioPollInterval):
		}
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelDebug, "cannot lift write deadline", errors.SlogError(err))
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	for chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelDebug, "listener went away", slog.String("dialogue_id", dialogueID),
				errors.SlogError(err))
			// Drain so that the speech worker finishes the utterance without waiting for its patience to run out.
			for range chunks {
			}
			return
		}
		_ = rc.Flush()
	}
}
