package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

func MigrateUp(db *sql.DB, dialect Dialect) error {
	return applyMigrations(db, dialect, ".up.sql", false)
}

func MigrateDown(db *sql.DB, dialect Dialect) error {
	return applyMigrations(db, dialect, ".down.sql", true)
}

func applyMigrations(db *sql.DB, dialect Dialect, suffix string, reverse bool) error {
	entries, err := fs.Glob(migrationFiles, "migrations/"+string(dialect)+"/*"+suffix)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no %s migrations for dialect %q", suffix, dialect)
	}
	sort.Strings(entries)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}
	for _, name := range entries {
		sqlBytes, readErr := migrationFiles.ReadFile(name)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", name, readErr)
		}
		if _, execErr := db.Exec(string(sqlBytes)); execErr != nil {
			return fmt.Errorf("apply migration %s: %w", name, execErr)
		}
	}
	return nil
}
