package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo ensures that the db schema matches the target schema defined in schema.sql.
//
// We employ a declarative schema migration that:
//
// 1. Deletes deleted tables,
// 2. Creates new tables,
// 3. Migrates changed tables using 12-step schema migration https://www.sqlite.org/lang_altertable.html#otheralter,
// 4. Synchronises triggers and indexes.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target database: %w", err)
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key validation: %w", err)
	}
	defer func() {
		if _, ferr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); ferr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to re-enable foreign key validation",
				slog.Any("error", ferr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer db.rollback(ctx, tx)

	if err = db.migrateTables(ctx, tx); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	if err = db.migrateSchema(ctx, tx, schemaTypeTrigger); err != nil {
		return fmt.Errorf("migrate triggers: %w", err)
	}
	if err = db.migrateSchema(ctx, tx, schemaTypeIndex); err != nil {
		return fmt.Errorf("migrate indexes: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches a temporary in-memory database initialised with
// the target schema so the live schema can be diffed against it. The returned
// function detaches it and must be called after the migration.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dataSourceName := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open schema target database: %w", err)
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				slog.Any("error", cerr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("initialise schema target database: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dataSourceName); err != nil {
		return nil, fmt.Errorf("attach schema target database: %w", err)
	}
	return func() {
		if _, derr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); derr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				slog.Any("error", derr))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", slog.Any("error", err))
	}
}

// migrateTables synchronises the table schema with the attached target.
func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	deleted, err := db.queryStringSlice(ctx, tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table'
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("query deleted tables: %w", err)
	}
	for _, table := range deleted {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", table)); err != nil {
			return fmt.Errorf("DROP TABLE %s: %w", table, err)
		}
	}

	created, err := db.queryStringSlice(ctx, tx, `SELECT target.sql
FROM sqlite_schema AS live RIGHT JOIN schemaTarget.sqlite_schema AS target
ON live.name = target.name AND live.type = target.type
WHERE target.type = 'table'
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("query new tables: %w", err)
	}
	for _, createSQL := range created {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Tables whose definition changed go through the 12-step migration.
	changed, err := db.queryChangedSchemas(ctx, tx, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table'
  AND live.name NOT LIKE 'sqlite_%'
  -- The table rename operation adds double quotes around the table name, so we remove them for this diff.
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = db.migrateChangedTable(ctx, tx, table); err != nil {
			return fmt.Errorf("migrate table %s: %w", table.name, err)
		}
	}
	return nil
}

// migrateChangedTable recreates the table under a temporary name, copies the
// common columns over and swaps it into place.
func (db *Database) migrateChangedTable(ctx context.Context, tx *sql.Tx, table changedSchema) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL),
		slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	tempSQL := strings.Replace(table.newSQL, table.name, tempName, 1)
	if _, err := tx.ExecContext(ctx, tempSQL); err != nil {
		return fmt.Errorf("create table under temporary name %s: %w", tempSQL, err)
	}

	// We wrap the column names in double quotes to handle column names that are SQLite keywords.
	commonColumns, err := db.queryStringSlice(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(commonColumns, ", ")
	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", //nolint: gosec // we trust the query.
		tempName, common, common, table.name)
	if _, err = tx.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("copy data: %w", err)
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s;", table.name)); err != nil {
		return fmt.Errorf("drop old table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", tempName, table.name)); err != nil {
		return fmt.Errorf("rename new table: %w", err)
	}
	return nil
}

type schemaType string

const (
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// migrateSchema ensures all entities of typ are synchronized between databases.
func (db *Database) migrateSchema(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	logger := db.logger.With(slog.String("schemaType", string(typ)))

	deleted, err := db.queryStringSlice(ctx, tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, typ)
	if err != nil {
		return fmt.Errorf("query deleted %s: %w", string(typ), err)
	}
	for _, name := range deleted {
		dropSQL := fmt.Sprintf("DROP %s %s;", strings.ToUpper(string(typ)), name)
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("name", name))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop %s %s: %w", string(typ), name, err)
		}
	}

	created, err := db.queryStringSlice(ctx, tx, `SELECT target.sql
FROM sqlite_schema AS live
         RIGHT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`, typ)
	if err != nil {
		return fmt.Errorf("query created %s: %w", string(typ), err)
	}
	for _, newSQL := range created {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", newSQL))
		if _, err = tx.ExecContext(ctx, newSQL); err != nil {
			return fmt.Errorf("create %s: %w", string(typ), err)
		}
	}

	changed, err := db.queryChangedSchemas(ctx, tx, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND live.sql <> target.sql`, typ)
	if err != nil {
		return fmt.Errorf("query changed %s: %w", string(typ), err)
	}
	for _, ch := range changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "migrating",
			slog.String("changed", ch.name),
			slog.String("live_sql", ch.liveSQL),
			slog.String("new_sql", ch.newSQL))
		dropSQL := fmt.Sprintf("DROP %s %s;", strings.ToUpper(string(typ)), ch.name)
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop changed %s %s: %w", string(typ), ch.name, err)
		}
		if _, err = tx.ExecContext(ctx, ch.newSQL); err != nil {
			return fmt.Errorf("create changed %s %s: %w", string(typ), ch.name, err)
		}
	}
	return nil
}

// queryStringSlice returns a single-column query result as a slice of strings.
func (db *Database) queryStringSlice(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			db.logger.Error("could not close rows", slog.Any("error", cerr))
		}
	}()
	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// queryChangedSchemas returns the entities whose live definition differs from the target.
func (db *Database) queryChangedSchemas(
	ctx context.Context,
	tx *sql.Tx,
	query string,
	args ...any,
) ([]changedSchema, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			db.logger.Error("could not close rows", slog.Any("error", cerr))
		}
	}()
	var results []changedSchema
	for rows.Next() {
		var result changedSchema
		if err = rows.Scan(&result.name, &result.liveSQL, &result.newSQL); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}
