package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/myrjola/gumshoe/cmd/cli/casefiles"
	"github.com/myrjola/gumshoe/cmd/cli/clienv"
	"github.com/myrjola/gumshoe/cmd/cli/play"
	"github.com/myrjola/gumshoe/cmd/cli/voice"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gumshoe",
		Long:          `Play and manage Gumshoe cases from the terminal https://github.com/myrjola/gumshoe`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	clienv.AddFlags(rootCmd)
	rootCmd.AddGroup(casefiles.Group, voice.Group, play.Group)
	rootCmd.AddCommand(casefiles.Commands()...)
	rootCmd.AddCommand(voice.NewCommand(), play.NewCommand())
	return rootCmd
}

func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic // stop is called above.
	}
}

func main() {
	Execute()
}
