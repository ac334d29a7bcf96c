package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/gumshoe/internal/broker"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/speech"
)

// audioPatience is how long synthesized audio waits for the browser to fetch it.
const audioPatience = 10 * time.Second

// player is the live state of one browser session. mu serializes the commands of the player so that no two
// commands interleave on the same game.
type player struct {
	mu       sync.Mutex
	game     *engine.Session
	lastSeen time.Time

	voiceMu     sync.Mutex
	queue       *speech.Queue
	stopQueue   context.CancelFunc
	voiceStatus string
}

// playerRegistry keeps the live games in memory. The session store holds a copy of the progress so that games
// survive restarts.
type playerRegistry struct {
	ctx         context.Context //nolint:containedctx // parent of the speech workers.
	synthesizer speech.Synthesizer
	audio       *broker.ChannelBroker[string, []byte]
	logger      *slog.Logger

	mu      sync.Mutex
	players map[string]*player
}

func newPlayerRegistry(
	ctx context.Context,
	synthesizer speech.Synthesizer,
	audio *broker.ChannelBroker[string, []byte],
	logger *slog.Logger,
) *playerRegistry {
	return &playerRegistry{
		ctx:         ctx,
		synthesizer: synthesizer,
		audio:       audio,
		logger:      logger,
		mu:          sync.Mutex{},
		players:     map[string]*player{},
	}
}

// lock returns the locked player with playerID. Call unlock when the command is done.
func (reg *playerRegistry) lock(playerID string) (p *player, unlock func()) {
	reg.mu.Lock()
	p, ok := reg.players[playerID]
	if !ok {
		p = &player{} //nolint:exhaustruct // zero value is ready to use.
		reg.players[playerID] = p
	}
	p.lastSeen = time.Now()
	reg.mu.Unlock()

	p.mu.Lock()
	return p, p.mu.Unlock
}

// speak renders dialogue as audio for the browser to fetch from the dialogue audio route.
func (reg *playerRegistry) speak(ctx context.Context, p *player, utterance speech.Utterance) bool {
	if !utterance.Settings.Active() {
		return false
	}
	p.voiceMu.Lock()
	if p.queue == nil {
		queueCtx, cancel := context.WithCancel(reg.ctx)
		p.queue = speech.NewQueue(reg.synthesizer, speech.NewStreamPlayer(reg.audio, audioPatience), reg.logger,
			func(status string) {
				p.voiceMu.Lock()
				defer p.voiceMu.Unlock()
				p.voiceStatus = status
			})
		p.stopQueue = cancel
		go p.queue.Run(queueCtx)
	}
	queue := p.queue
	p.voiceMu.Unlock()
	return queue.Enqueue(ctx, utterance)
}

// takeVoiceStatus returns and clears the latest speech failure of the player.
func (p *player) takeVoiceStatus() string {
	p.voiceMu.Lock()
	defer p.voiceMu.Unlock()
	status := p.voiceStatus
	p.voiceStatus = ""
	return status
}

// evictIdle forgets players that have been idle longer than maxIdle until ctx is done.
func (reg *playerRegistry) evictIdle(ctx context.Context, maxIdle time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.evictBefore(ctx, time.Now().Add(-maxIdle))
		}
	}
}

func (reg *playerRegistry) evictBefore(ctx context.Context, deadline time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	evicted := 0
	for id, p := range reg.players {
		if p.lastSeen.Before(deadline) {
			p.voiceMu.Lock()
			if p.stopQueue != nil {
				p.stopQueue()
			}
			p.voiceMu.Unlock()
			delete(reg.players, id)
			evicted++
		}
	}
	if evicted > 0 {
		reg.logger.LogAttrs(ctx, slog.LevelInfo, "evicted idle players", slog.Int("count", evicted))
	}
}
