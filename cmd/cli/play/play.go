// Package play runs a case in the terminal.
package play

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/gumshoe/cmd/cli/clienv"
	"github.com/myrjola/gumshoe/internal/ai"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/myrjola/gumshoe/internal/speech"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "game",
	Title: "Game",
}

const (
	caseFlag   = "case"
	styleFlag  = "style"
	playerFlag = "audio-player"
)

// NewCommand creates the play command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "play",
		GroupID: Group.ID,
		Short:   "Investigate a case in the terminal",
		Long: `Starts a case and reads commands from standard input. Dialogue is spoken aloud when voice is enabled
with the voice command.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
	cmd.Flags().String(caseFlag, "", "case to start, the default case when empty")
	cmd.Flags().String(styleFlag, "auto", "glamour style for the case texts")
	cmd.Flags().String(playerFlag, strings.Join(speech.DefaultPlayerCommand, " "),
		"command that plays mp3 from standard input")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := clienv.Logger(cmd)
	catalog, err := clienv.Catalog(cmd, logger)
	if err != nil {
		return err
	}
	caseID, _ := cmd.Flags().GetString(caseFlag)
	if caseID == "" {
		caseID = catalog.DefaultID()
	}
	if _, err = catalog.Bundle(caseID); err != nil {
		return errors.Wrap(err, "pick case", slog.String("known", strings.Join(caseIDs(catalog), ",")))
	}

	style, _ := cmd.Flags().GetString(styleFlag)
	r, err := newREPL(catalog, cmd.OutOrStdout(), style)
	if err != nil {
		return err
	}

	settings := loadVoiceSettings(cmd, logger)
	if settings.Active() {
		playerCommand, _ := cmd.Flags().GetString(playerFlag)
		stop := r.enableSpeech(ctx, settings, speech.CommandPlayer{Command: strings.Fields(playerCommand)}, logger)
		defer stop()
	}
	r.printf("%s\n", settings.StatusText())

	if err = r.start(ctx, caseID); err != nil {
		return errors.Wrap(err, "start case", slog.String("case_id", caseID))
	}
	return r.run(ctx, cmd.InOrStdin())
}

// loadVoiceSettings falls back to text mode when the settings cannot be read.
func loadVoiceSettings(cmd *cobra.Command, logger *slog.Logger) models.VoiceSettings {
	repo, db, err := clienv.Settings(cmd, logger)
	if err != nil {
		logger.LogAttrs(cmd.Context(), slog.LevelWarn, "voice settings unavailable", errors.SlogError(err))
		return models.DefaultVoiceSettings()
	}
	defer func() {
		_ = db.Close()
	}()
	settings, err := repo.Get(cmd.Context(), clienv.PlayerID(cmd))
	if err != nil {
		logger.LogAttrs(cmd.Context(), slog.LevelWarn, "voice settings unavailable", errors.SlogError(err))
		return models.DefaultVoiceSettings()
	}
	return settings
}

// enableSpeech speaks every dialogue through player until the returned stop function is called.
func (r *repl) enableSpeech(
	ctx context.Context,
	settings models.VoiceSettings,
	player speech.Player,
	logger *slog.Logger,
) func() {
	queue := speech.NewQueue(ai.NewClient(os.Getenv("GUMSHOE_OPENAI_BASE_URL")), player, logger, func(status string) {
		r.printf("\n%s\n", r.styles.reject.Render(status))
	})
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		queue.Run(ctx)
	}()
	r.speak = func(ctx context.Context, dialogue engine.Dialogue) {
		queue.Enqueue(ctx, speech.Utterance{ID: dialogue.ID, Text: dialogue.Text, Settings: settings})
	}
	return func() {
		cancel()
		<-done
	}
}
