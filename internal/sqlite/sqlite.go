package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "embed"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/random"

	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 driver
)

//go:embed schema.sql
var schemaDefinition string

type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to the database, synchronizes the schema and starts the hourly optimizer that stops with ctx.
//
// It establishes two connection pools, one for read/write operations and one for read-only operations.
// This is a best practice mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "connect", slog.String("url", url))
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "synchronize schema")
	}

	go db.startDatabaseOptimizer(ctx)

	return db, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadWrite.Close(), db.ReadOnly.Close())
}

func connect(url string, logger *slog.Logger) (*Database, error) {
	var (
		err         error
		readWriteDB *sql.DB
		readDB      *sql.DB
	)

	// For in-memory databases, we need shared cache mode so that both pools access the same data.
	//
	// For parallel tests, we need to use a different database name for each connection to avoid sharing data.
	// See https://www.sqlite.org/inmemorydb.html.
	modeConfig := "mode=rwc"
	readModeConfig := "mode=ro"
	if strings.Contains(url, ":memory:") {
		var (
			randomID     string
			dbNameLength uint = 20
		)
		if randomID, err = random.Letters(dbNameLength); err != nil {
			return nil, errors.Wrap(err, "generate random ID")
		}
		url = randomID
		modeConfig = "mode=memory&cache=shared"
		// The mode=ro flag does not work together with mode=memory so we rely on _query_only.
		readModeConfig = modeConfig
	}
	commonConfig := strings.Join([]string{
		// Write-ahead logging enables higher performance and concurrent readers.
		"_journal_mode=wal",
		// Avoids SQLITE_BUSY errors when database is under load.
		"_busy_timeout=5000",
		// Increases performance at the cost of durability https://www.sqlite.org/pragma.html#pragma_synchronous.
		"_synchronous=normal",
		// Enables foreign key constraints.
		"_foreign_keys=on",
		// Performance enhancement by storing temporary tables indices in memory instead of files.
		"_temp_store=memory",
		// Performance enhancement for reducing syscalls by having the pages in memory-mapped I/O.
		"_mmap_size=30000000000",
	}, "&")

	// The options prefixed with underscore '_' are SQLite pragmas documented at https://www.sqlite.org/pragma.html.
	// The options without leading underscore are SQLite URI parameters documented at https://www.sqlite.org/uri.html.
	readConfig := fmt.Sprintf("file:%s?%s&_txlock=deferred&_query_only=true&%s", url, readModeConfig, commonConfig)
	readWriteConfig := fmt.Sprintf("file:%s?%s&_txlock=immediate&%s", url, modeConfig, commonConfig)

	if readWriteDB, err = sql.Open("sqlite3", readWriteConfig); err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}

	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(0)
	readWriteDB.SetConnMaxIdleTime(0)

	if readDB, err = sql.Open("sqlite3", readConfig); err != nil {
		return nil, errors.Join(errors.Wrap(err, "open read database"), readWriteDB.Close())
	}

	maxReadConns := 10
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}
