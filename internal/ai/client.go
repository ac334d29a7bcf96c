// Package ai talks to the OpenAI API for speech synthesis.
package ai

import (
	"context"
	"io"
	"log/slog"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/sashabaranov/go-openai"
)

var ErrMissingAPIKey = errors.NewSentinel("missing API key")

// Client synthesizes speech. Each request carries the API key of the player, so one Client serves everybody.
type Client struct {
	baseURL string
}

// NewClient creates a client for the API at baseURL. An empty baseURL uses the public OpenAI API.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

type SpeechRequest struct {
	APIKey string
	Model  string
	Voice  string
	Input  string
}

// Speech returns the mp3 audio of req.Input. The caller must close the returned reader.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	if req.APIKey == "" {
		return nil, errors.Wrap(ErrMissingAPIKey, "create speech")
	}
	config := openai.DefaultConfig(req.APIKey)
	if c.baseURL != "" {
		config.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(config)

	audio, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{ //nolint:exhaustruct // defaults are fine.
		Model:          openai.SpeechModel(req.Model),
		Input:          req.Input,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create speech", slog.String("model", req.Model), slog.String("voice", req.Voice))
	}
	return audio, nil
}
