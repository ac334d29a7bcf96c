package speech

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/myrjola/gumshoe/internal/broker"
	"github.com/myrjola/gumshoe/internal/errors"
)

// DefaultPlayerCommand plays mp3 from standard input.
var DefaultPlayerCommand = []string{"mpg123", "-q", "-"}

// CommandPlayer pipes audio into an external command and waits for it to exit.
type CommandPlayer struct {
	Command []string
}

func (p CommandPlayer) Play(ctx context.Context, utteranceID string, audio io.Reader) error {
	command := p.Command
	if len(command) == 0 {
		command = DefaultPlayerCommand
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...) //nolint:gosec // the command is configuration.
	cmd.Stdin = audio
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "run player", slog.String("command", command[0]),
			slog.String("utterance_id", utteranceID))
	}
	return nil
}

var ErrNoListener = errors.NewSentinel("nobody is listening")

const streamChunkSize = 32 * 1024

// StreamPlayer publishes audio in the broker under the utterance ID for an HTTP handler to stream to the
// browser. Playing completes when the listener has received all of it.
type StreamPlayer struct {
	broker *broker.ChannelBroker[string, []byte]
	// patience is how long a chunk waits for the listener.
	patience time.Duration
}

func NewStreamPlayer(b *broker.ChannelBroker[string, []byte], patience time.Duration) *StreamPlayer {
	return &StreamPlayer{broker: b, patience: patience}
}

func (p *StreamPlayer) Play(ctx context.Context, utteranceID string, audio io.Reader) error {
	chunks := make(chan []byte)
	p.broker.Publish(utteranceID, chunks)
	defer p.broker.Unpublish(utteranceID)
	defer close(chunks)

	timer := time.NewTimer(p.patience)
	defer timer.Stop()
	for {
		buf := make([]byte, streamChunkSize)
		n, err := audio.Read(buf)
		if n > 0 {
			timer.Reset(p.patience)
			select {
			case chunks <- buf[:n]:
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "stream interrupted")
			case <-timer.C:
				return errors.Wrap(ErrNoListener, "stream audio", slog.String("utterance_id", utteranceID))
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read audio")
		}
	}
}
