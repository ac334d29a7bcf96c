package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/gumshoe/internal/e2etest"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/logging"
)

// TestCase solves the default case from a fresh session.
func TestCase(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) //nolint:mnd // 30 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for ready")
	}
	if _, err := client.Play(ctx, e2etest.CrownJewelsSolution); err != nil {
		return errors.Wrap(err, "play default case")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestCase(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing case", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
