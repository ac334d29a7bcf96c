package testhelpers

import (
	"bytes"
	"io"
	"log/slog"
	"sync"

	"github.com/myrjola/gumshoe/internal/logging"
)

// NewLogger creates a new logger with the given log sink such as io.Discard.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

// LogBuffer is an [io.Writer] safe for loggers shared with background goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails.
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewBufferedLogger returns a debug logger writing into the returned buffer for log assertions.
func NewBufferedLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return NewLogger(buf), buf
}
