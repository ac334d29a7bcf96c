// Package voice shows and changes the voice settings of a player.
package voice

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/gumshoe/cmd/cli/clienv"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "settings",
	Title: "Settings",
}

var ErrUnknownVoice = errors.NewSentinel("unknown voice")

const (
	enabledFlag   = "enabled"
	apiKeyFlag    = "api-key"
	forgetKeyFlag = "forget-key"
	modelFlag     = "model"
	voiceFlag     = "voice"
)

// NewCommand creates the voice command. Without flags it shows the stored settings.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "voice",
		GroupID: Group.ID,
		Short:   "Show or change the voice settings",
		Args:    cobra.NoArgs,
		RunE:    run,
	}
	cmd.Flags().Bool(enabledFlag, false, "speak dialogue aloud")
	cmd.Flags().String(apiKeyFlag, "", "OpenAI API key for speech synthesis")
	cmd.Flags().Bool(forgetKeyFlag, false, "remove the stored API key")
	cmd.Flags().String(modelFlag, "", "speech model")
	cmd.Flags().String(voiceFlag, "", "voice, one of "+strings.Join(models.SpeechVoices, ", "))
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	logger := clienv.Logger(cmd)
	repo, db, err := clienv.Settings(cmd, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(cmd.Context(), slog.LevelWarn, "close settings database", errors.SlogError(closeErr))
		}
	}()

	ctx := cmd.Context()
	playerID := clienv.PlayerID(cmd)
	settings, err := repo.Get(ctx, playerID)
	if err != nil {
		return errors.Wrap(err, "get voice settings")
	}

	flags := cmd.Flags()
	changed := false
	for _, name := range []string{enabledFlag, apiKeyFlag, forgetKeyFlag, modelFlag, voiceFlag} {
		changed = changed || flags.Changed(name)
	}
	out := cmd.OutOrStdout()
	if !changed {
		_, err = fmt.Fprintf(out, "%s\nmodel: %s\nvoice: %s\napi key stored: %t\n",
			settings.StatusText(), settings.Model, settings.Voice, settings.APIKey != "")
		return errors.Wrap(err, "write settings")
	}

	if flags.Changed(enabledFlag) {
		settings.Enabled, _ = flags.GetBool(enabledFlag)
	}
	if flags.Changed(apiKeyFlag) {
		settings.APIKey, _ = flags.GetString(apiKeyFlag)
	}
	if forget, _ := flags.GetBool(forgetKeyFlag); forget {
		settings.APIKey = ""
	}
	if flags.Changed(modelFlag) {
		settings.Model, _ = flags.GetString(modelFlag)
	}
	if flags.Changed(voiceFlag) {
		settings.Voice, _ = flags.GetString(voiceFlag)
		if !slices.Contains(models.SpeechVoices, settings.Voice) {
			return errors.Wrap(ErrUnknownVoice, "set voice", slog.String("voice", settings.Voice))
		}
	}

	if err = repo.Save(ctx, playerID, settings); err != nil {
		return errors.Wrap(err, "save voice settings")
	}
	_, err = fmt.Fprintln(out, settings.SavedStatusText())
	return errors.Wrap(err, "write status")
}
