package db

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations returns the embedded migration files, rooted so the
// NNNNNN_name.{up,down}.sql pairs sit at the top of the filesystem the way
// golang-migrate expects.
func Migrations() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations unavailable: %w", err)
	}
	return sub, nil
}
