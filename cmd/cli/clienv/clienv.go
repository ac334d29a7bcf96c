// Package clienv resolves the shared flags of the command line tools into the case catalog, the settings store
// and the logger.
package clienv

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/myrjola/gumshoe/data"
	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/logging"
	"github.com/myrjola/gumshoe/internal/repositories"
	"github.com/myrjola/gumshoe/internal/sqlite"
	"github.com/spf13/cobra"
)

const (
	DataFlag      = "data"
	SQLiteFlag    = "sqlite"
	PlayerFlag    = "player"
	VerboseFlag   = "verbose"
	defaultPlayer = "local"
)

// AddFlags registers the shared flags on the root command.
func AddFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String(DataFlag, "", "directory with cases-manifest.json, the built-in cases are used when empty")
	flags.String(SQLiteFlag, "./gumshoe.sqlite3", "path of the settings database")
	flags.String(PlayerFlag, defaultPlayer, "player whose voice settings are used")
	flags.Bool(VerboseFlag, false, "log debug messages")
}

// Logger logs to the error output of cmd.
func Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool(VerboseFlag); verbose {
		level = slog.LevelDebug
	}
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	})))
}

// DataFS is the data directory given with the data flag or the built-in cases.
func DataFS(cmd *cobra.Command) fs.FS {
	if dir, _ := cmd.Flags().GetString(DataFlag); dir != "" {
		return os.DirFS(dir)
	}
	return data.Files
}

// Catalog loads the cases of [DataFS].
func Catalog(cmd *cobra.Command, logger *slog.Logger) (*casefile.Catalog, error) {
	catalog, err := casefile.Load(cmd.Context(), DataFS(cmd), casefile.DefaultManifestPath, logger)
	if err != nil {
		return nil, errors.Wrap(err, "load cases")
	}
	return catalog, nil
}

// PlayerID is the player given with the player flag.
func PlayerID(cmd *cobra.Command) string {
	playerID, _ := cmd.Flags().GetString(PlayerFlag)
	if playerID == "" {
		return defaultPlayer
	}
	return playerID
}

// Settings opens the settings store. The caller closes the returned database.
func Settings(cmd *cobra.Command, logger *slog.Logger) (*repositories.SettingsRepository, *sqlite.Database, error) {
	path, _ := cmd.Flags().GetString(SQLiteFlag)
	db, err := sqlite.NewDatabase(cmd.Context(), path, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open settings database", slog.String("path", path))
	}
	return repositories.NewSettingsRepository(db, logger), db, nil
}
