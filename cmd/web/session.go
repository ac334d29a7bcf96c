package main

import (
	"encoding/gob"

	"github.com/myrjola/gumshoe/internal/engine"
)

func init() {
	gob.Register(engine.Progress{})
}

type sessionKey string

const (
	playerIDSessionKey = sessionKey("playerID")
	progressSessionKey = sessionKey("progress")
	flashSessionKey    = sessionKey("flash")
	// speakSessionKey holds the ID of the dialogue the next page load should play.
	speakSessionKey = sessionKey("speak")
)
