// Package casefiles lists and validates case files.
package casefiles

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/myrjola/gumshoe/cmd/cli/clienv"
	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "cases",
	Title: "Case files",
}

// Commands creates the case file commands.
func Commands() []*cobra.Command {
	return []*cobra.Command{newListCommand(), newValidateCommand()}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "cases",
		GroupID: Group.ID,
		Short:   "List the available cases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := clienv.Catalog(cmd, clienv.Logger(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range catalog.Entries() {
				marker := " "
				if entry.ID == catalog.DefaultID() {
					marker = "*"
				}
				if _, err = fmt.Fprintf(out, "%s %-16s %s (%s)\n", marker, entry.ID, entry.Label, entry.Language); err != nil {
					return errors.Wrap(err, "write case")
				}
			}
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate [dir]",
		GroupID: Group.ID,
		Short:   "Validate a data directory",
		Long: `Loads every case of the manifest in dir, or of the data flag when dir is not given, and reports the
first structural problem.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := clienv.DataFS(cmd)
			source := "built-in cases"
			if len(args) == 1 {
				fsys = os.DirFS(args[0])
				source = args[0]
			}
			logger := clienv.Logger(cmd)
			catalog, err := casefile.Load(cmd.Context(), fsys, casefile.DefaultManifestPath, logger)
			if err != nil {
				return errors.Wrap(err, "invalid case data", slog.String("source", source))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cases valid\n", source, len(catalog.Entries()))
			return errors.Wrap(err, "write result")
		},
	}
}
