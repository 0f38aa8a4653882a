// Package db opens the irradiation database and manages its schema.
//
// The database holds recorded scan sessions (beam current samples plus
// per-row scan logs) and the fluence maps reconstructed from them. The
// schema is managed exclusively by the embedded golang-migrate files
// under migrations/; Open never creates tables itself.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL connection to an irradiation database.
type DB struct {
	*sql.DB
}

// pragmas applied to every database we open. WAL keeps readers from
// blocking the writer; busy_timeout absorbs most of the remaining lock
// contention.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens the database at path, creating the file if needed, and applies
// the session pragmas. Run MigrateUp before first use; Open does not touch
// the schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return &DB{sqlDB}, nil
}
