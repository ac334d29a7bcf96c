package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/random"
)

// migrateTo ensures that the db schema matches schemaDefinition.
//
// We employ a very simple declarative schema migration that:
//
// 1. Deletes deleted tables,
// 2. Creates new tables,
// 3. Migrates changed tables using 12-step schema migration https://www.sqlite.org/lang_altertable.html#otheralter,
// 4. Drops and recreates indexes and triggers that were removed, added or changed.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	var err error

	// PRAGMA foreign_keys and ATTACH are no-ops or errors inside a transaction, so everything runs on one
	// dedicated connection.
	var conn *sql.Conn
	if conn, err = db.ReadWrite.Conn(ctx); err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to release connection", errors.SlogError(closeErr))
		}
	}()

	// The target schema lives in a temporary database so that we can compare it against the current one.
	var targetName string
	if targetName, err = random.Letters(20); err != nil { //nolint:mnd // long enough to be unique.
		return errors.Wrap(err, "generate random ID")
	}
	targetDSN := fmt.Sprintf("file:%s?mode=memory&cache=shared", targetName)
	var target *sql.DB
	if target, err = sql.Open("sqlite3", targetDSN); err != nil {
		return errors.Wrap(err, "open schema target database")
	}
	// The in-memory database lives as long as this connection.
	target.SetMaxOpenConns(1)
	target.SetConnMaxLifetime(0)
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				errors.SlogError(closeErr))
		}
	}()
	if strings.TrimSpace(schemaDefinition) != "" {
		if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
			return errors.Wrap(err, "migrate schema target database")
		}
	}

	if _, err = conn.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", targetDSN); err != nil {
		return errors.Wrap(err, "attach schema target database")
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				errors.SlogError(detachErr))
		}
	}()

	// 12-step schema migration starts here. See https://www.sqlite.org/lang_altertable.html#otheralter.

	// Step 1: Disable foreign key validation temporarily. Legacy renames keep references in other tables pointing
	// at the name of a rebuilt table.
	if _, err = conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign key validation")
	}
	if _, err = conn.ExecContext(ctx, "PRAGMA legacy_alter_table = ON"); err != nil {
		return errors.Wrap(err, "enable legacy alter table")
	}
	// Step 12: Re-enable foreign key validation.
	defer func() {
		if _, legacyErr := conn.ExecContext(ctx, "PRAGMA legacy_alter_table = OFF"); legacyErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelWarn, "failed to disable legacy alter table", errors.SlogError(legacyErr))
		}
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			fkErr = errors.Wrap(fkErr, "re-enable foreign key validation")
			db.logger.LogAttrs(ctx, slog.LevelError, "exit to avoid data corruption", errors.SlogError(fkErr))
			if killErr := syscall.Kill(syscall.Getpid(), syscall.SIGINT); killErr != nil {
				os.Exit(1)
			}
		}
	}()

	// Step 2: Start transaction.
	var tx *sql.Tx
	if tx, err = conn.BeginTx(ctx, nil); err != nil {
		return errors.Wrap(err, "start transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", errors.SlogError(rollbackErr))
		}
	}()

	// Step 3-7 migrate tables.
	if err = db.migrateTables(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate tables")
	}

	// Step 8: Recreate indexes and triggers associated with table if needed.
	if err = db.migrateIndexesAndTriggers(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate indexes and triggers")
	}

	// Step 9: Views are not used.
	// Step 10: Check foreign key constraints.
	var violations []string
	if violations, err = db.queryStringSlice(ctx, tx, "SELECT \"table\" FROM pragma_foreign_key_check"); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if len(violations) > 0 {
		return errors.New("foreign key violations", slog.Any("tables", violations))
	}

	// Step 11: Commit transaction from step 2.
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

// migrateTables ensures table schema is synchronized between databases.
func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	var err error

	var deletedTables []string
	if deletedTables, err = db.queryStringSlice(ctx, tx, `SELECT current.name
FROM main.sqlite_schema AS current
LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type = 'table' AND target.type IS NULL AND current.name NOT LIKE 'sqlite_%'`); err != nil {
		return errors.Wrap(err, "query deleted tables")
	}
	for _, table := range deletedTables {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, "DROP TABLE "+quoteIdentifier(table)); err != nil {
			return errors.Wrap(err, "drop table", slog.String("table", table))
		}
	}

	var newTableSQLs []string
	if newTableSQLs, err = db.queryStringSlice(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN main.sqlite_schema AS current ON current.name = target.name AND current.type = target.type
WHERE target.type = 'table' AND current.type IS NULL AND target.name NOT LIKE 'sqlite_%'`); err != nil {
		return errors.Wrap(err, "query new tables")
	}
	for _, newTableSQL := range newTableSQLs {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", newTableSQL))
		if _, err = tx.ExecContext(ctx, newTableSQL); err != nil {
			return errors.Wrap(err, "create table", slog.String("query", newTableSQL))
		}
	}

	var changed []changedObject
	if changed, err = db.queryChangedObjects(ctx, tx, "table"); err != nil {
		return errors.Wrap(err, "query changed tables")
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return errors.Wrap(err, "rebuild table", slog.String("table", table.name))
		}
	}
	return nil
}

// rebuildTable carries out steps 4 to 7 of the 12-step schema migration for one table. The old table is moved
// aside so that the new one is created from the exact target definition and compares equal on the next run.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table changedObject) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("current_sql", table.currentSQL),
		slog.String("new_sql", table.newSQL))

	oldName := table.name + "_migration_old"
	renameSQL := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdentifier(table.name), quoteIdentifier(oldName))
	if _, err := tx.ExecContext(ctx, renameSQL); err != nil {
		return errors.Wrap(err, "move old table aside")
	}

	// Step 4: Create table according to new schema.
	if _, err := tx.ExecContext(ctx, table.newSQL); err != nil {
		return errors.Wrap(err, "create new table", slog.String("query", table.newSQL))
	}

	// Step 5: Copy common columns between tables. Column names are quoted in case they are SQLite keywords.
	commonColumns, err := db.queryStringSlice(ctx, tx, `SELECT '"' || target.name || '"'
FROM pragma_table_info(:old_name, 'main') AS current
JOIN pragma_table_info(:table_name, 'schemaTarget') AS target ON target.name = current.name`,
		sql.Named("old_name", oldName), sql.Named("table_name", table.name))
	if err != nil {
		return errors.Wrap(err, "query common columns")
	}
	if len(commonColumns) > 0 {
		common := strings.Join(commonColumns, ", ")
		copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", //nolint:gosec // identifiers are quoted.
			quoteIdentifier(table.name), common, common, quoteIdentifier(oldName))
		db.logger.LogAttrs(ctx, slog.LevelInfo, "copying data", slog.String("query", copySQL))
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return errors.Wrap(err, "copy data")
		}
	}

	// Steps 6 and 7: Drop the old table together with its indexes and triggers.
	if _, err = tx.ExecContext(ctx, "DROP TABLE "+quoteIdentifier(oldName)); err != nil {
		return errors.Wrap(err, "drop old table")
	}
	return nil
}

// migrateIndexesAndTriggers drops indexes and triggers that are gone or changed and creates the ones that are new
// or changed. Indexes and triggers of rebuilt tables are gone at this point and get recreated here.
func (db *Database) migrateIndexesAndTriggers(ctx context.Context, tx *sql.Tx) error {
	for _, objectType := range []string{"trigger", "index"} {
		deleted, err := db.queryStringSlice(ctx, tx, `SELECT current.name
FROM main.sqlite_schema AS current
LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type = :type AND current.sql IS NOT NULL AND target.type IS NULL`, sql.Named("type", objectType))
		if err != nil {
			return errors.Wrap(err, "query deleted objects", slog.String("type", objectType))
		}
		var changed []changedObject
		if changed, err = db.queryChangedObjects(ctx, tx, objectType); err != nil {
			return errors.Wrap(err, "query changed objects", slog.String("type", objectType))
		}
		for _, object := range changed {
			deleted = append(deleted, object.name)
		}
		for _, name := range deleted {
			db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping "+objectType, slog.String("name", name))
			dropSQL := fmt.Sprintf("DROP %s %s", strings.ToUpper(objectType), quoteIdentifier(name))
			if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
				return errors.Wrap(err, "drop object", slog.String("query", dropSQL))
			}
		}
	}

	// Indexes first since triggers may rely on them.
	for _, objectType := range []string{"index", "trigger"} {
		created, err := db.queryStringSlice(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN main.sqlite_schema AS current ON current.name = target.name AND current.type = target.type
WHERE target.type = :type AND target.sql IS NOT NULL AND current.type IS NULL`, sql.Named("type", objectType))
		if err != nil {
			return errors.Wrap(err, "query new objects", slog.String("type", objectType))
		}
		for _, createSQL := range created {
			db.logger.LogAttrs(ctx, slog.LevelInfo, "creating "+objectType, slog.String("query", createSQL))
			if _, err = tx.ExecContext(ctx, createSQL); err != nil {
				return errors.Wrap(err, "create object", slog.String("query", createSQL))
			}
		}
	}
	return nil
}

type changedObject struct {
	name       string
	currentSQL string
	newSQL     string
}

// queryChangedObjects returns the objects of objectType whose definition differs between the current and target
// schema.
func (db *Database) queryChangedObjects(ctx context.Context, tx *sql.Tx, objectType string) ([]changedObject, error) {
	rows, err := tx.QueryContext(ctx, `SELECT current.name, current.sql, target.sql
FROM main.sqlite_schema AS current
JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type = :type AND current.name NOT LIKE 'sqlite_%' AND current.sql <> target.sql`,
		sql.Named("type", objectType))
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(rows)
	var changed []changedObject
	for rows.Next() {
		var object changedObject
		if err = rows.Scan(&object.name, &object.currentSQL, &object.newSQL); err != nil {
			return nil, errors.Wrap(err, "scan object")
		}
		changed = append(changed, object)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return changed, nil
}

// queryStringSlice returns the single string column of a query.
func (db *Database) queryStringSlice(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(rows)
	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return results, nil
}

func (db *Database) closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		db.logger.Error("could not close rows", errors.SlogError(errors.Wrap(err, "close rows")))
	}
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
