// Package speech speaks dialogue aloud. A [Queue] synthesizes and plays utterances one at a time in the order
// they were enqueued. It never blocks the caller and never reports failures other than through its status
// callback, so the game keeps working in text mode whatever happens to the audio.
package speech

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/myrjola/gumshoe/internal/ai"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
)

// FailureStatus is reported when an utterance could not be synthesized or played.
const FailureStatus = "Failed to generate audio. Keeping dialogue as text."

// DefaultQueueSize is the number of utterances waiting to be spoken before new ones are dropped.
const DefaultQueueSize = 16

// Synthesizer turns text into audio. [ai.Client] is the production implementation.
type Synthesizer interface {
	Speech(ctx context.Context, req ai.SpeechRequest) (io.ReadCloser, error)
}

// Player plays audio to completion or failure. Play must return promptly once ctx is cancelled.
type Player interface {
	Play(ctx context.Context, utteranceID string, audio io.Reader) error
}

// Utterance is one dialogue line to speak with the voice settings active when it was emitted.
type Utterance struct {
	ID       string
	Text     string
	Settings models.VoiceSettings
}

// Queue is an ordered speech pipeline consumed by a single worker started with Run.
type Queue struct {
	synthesizer Synthesizer
	player      Player
	logger      *slog.Logger
	onStatus    func(status string)
	items       chan Utterance

	mu            sync.Mutex
	cancelPlaying context.CancelFunc
}

// NewQueue creates a queue. onStatus receives status messages meant for the player and may be nil.
func NewQueue(synthesizer Synthesizer, player Player, logger *slog.Logger, onStatus func(string)) *Queue {
	if onStatus == nil {
		onStatus = func(string) {}
	}
	return &Queue{
		synthesizer:   synthesizer,
		player:        player,
		logger:        logger,
		onStatus:      onStatus,
		items:         make(chan Utterance, DefaultQueueSize),
		mu:            sync.Mutex{},
		cancelPlaying: nil,
	}
}

// Enqueue schedules u after everything already queued and stops the utterance currently playing, since new
// dialogue supersedes it. It reports false when u was skipped: voice inactive, nothing to say or queue full.
func (q *Queue) Enqueue(ctx context.Context, u Utterance) bool {
	if !u.Settings.Active() || strings.TrimSpace(u.Text) == "" {
		return false
	}

	q.mu.Lock()
	if q.cancelPlaying != nil {
		q.cancelPlaying()
	}
	q.mu.Unlock()

	select {
	case q.items <- u:
		return true
	default:
		q.logger.LogAttrs(ctx, slog.LevelWarn, "speech queue full, dropping utterance",
			slog.String("utterance_id", u.ID))
		return false
	}
}

// Run consumes the queue until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-q.items:
			q.speak(ctx, u)
		}
	}
}

func (q *Queue) speak(ctx context.Context, u Utterance) {
	playCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancelPlaying = cancel
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.cancelPlaying = nil
		q.mu.Unlock()
		cancel()
	}()

	err := q.synthesizeAndPlay(playCtx, u)
	switch {
	case err == nil:
		q.logger.LogAttrs(ctx, slog.LevelDebug, "utterance spoken", slog.String("utterance_id", u.ID))
	case playCtx.Err() != nil:
		q.logger.LogAttrs(ctx, slog.LevelDebug, "utterance interrupted", slog.String("utterance_id", u.ID))
	default:
		q.logger.LogAttrs(ctx, slog.LevelWarn, "speech failed", slog.String("utterance_id", u.ID),
			errors.SlogError(err))
		q.onStatus(FailureStatus)
	}
}

func (q *Queue) synthesizeAndPlay(ctx context.Context, u Utterance) error {
	audio, err := q.synthesizer.Speech(ctx, ai.SpeechRequest{
		APIKey: u.Settings.APIKey,
		Model:  u.Settings.Model,
		Voice:  u.Settings.Voice,
		Input:  u.Text,
	})
	if err != nil {
		return errors.Wrap(err, "synthesize")
	}
	defer func() {
		if closeErr := audio.Close(); closeErr != nil {
			q.logger.LogAttrs(ctx, slog.LevelDebug, "close audio", errors.SlogError(closeErr))
		}
	}()
	if err = q.player.Play(ctx, u.ID, audio); err != nil {
		return errors.Wrap(err, "play")
	}
	return nil
}
