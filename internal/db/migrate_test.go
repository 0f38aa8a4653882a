package db

import (
	"io/fs"
	"testing"
)

// openMigratedDB opens a fresh database in a temp dir and applies all
// migrations.
func openMigratedDB(t *testing.T) (*DB, fs.FS) {
	t.Helper()

	database, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}
	if err := database.MigrateUp(migrations); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	return database, migrations
}

// tableExists reports whether a table is present in the schema.
func tableExists(t *testing.T, database *DB, name string) bool {
	t.Helper()

	var count int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count > 0
}

// TestMigrateUp_CreatesSchema verifies all tables exist after migrating up
func TestMigrateUp_CreatesSchema(t *testing.T) {
	database, migrations := openMigratedDB(t)

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected version 2 (clean), got %d (dirty: %v)", version, dirty)
	}

	for _, table := range []string{
		"irrad_sessions", "beam_samples", "scan_rows",
		"fluence_runs", "fluence_maps",
	} {
		if !tableExists(t, database, table) {
			t.Errorf("Expected table %s to exist after MigrateUp", table)
		}
	}
}

// TestMigrateUp_NoChange verifies a second up is a no-op, not an error
func TestMigrateUp_NoChange(t *testing.T) {
	database, migrations := openMigratedDB(t)

	if err := database.MigrateUp(migrations); err != nil {
		t.Errorf("Second MigrateUp should be a no-op, got error: %v", err)
	}
}

// TestMigrateDown_RollsBackOneVersion verifies down removes only the latest migration
func TestMigrateDown_RollsBackOneVersion(t *testing.T) {
	database, migrations := openMigratedDB(t)

	if err := database.MigrateDown(migrations); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected version 1 (clean) after down, got %d (dirty: %v)", version, dirty)
	}

	if tableExists(t, database, "fluence_runs") {
		t.Error("Expected fluence_runs to be dropped by down migration")
	}
	if !tableExists(t, database, "irrad_sessions") {
		t.Error("Expected irrad_sessions to survive rolling back version 2")
	}
}

// TestMigrateTo_PartialSchema verifies migrating a fresh database to version 1
func TestMigrateTo_PartialSchema(t *testing.T) {
	database, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}

	if err := database.MigrateTo(migrations, 1); err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}

	version, _, err := database.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}

	if !tableExists(t, database, "scan_rows") {
		t.Error("Expected scan_rows to exist at version 1")
	}
	if tableExists(t, database, "fluence_runs") {
		t.Error("Expected fluence_runs to not exist at version 1")
	}
}

// TestMigrateVersion_FreshDatabase verifies the nil-version case maps to 0
func TestMigrateVersion_FreshDatabase(t *testing.T) {
	database, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Expected version 0 (clean) before migrations, got %d (dirty: %v)", version, dirty)
	}
}

// TestMigrateForce rewrites the recorded version without running migrations
func TestMigrateForce(t *testing.T) {
	database, migrations := openMigratedDB(t)

	if err := database.MigrateForce(migrations, 1); err != nil {
		t.Fatalf("MigrateForce failed: %v", err)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected forced version 1 (clean), got %d (dirty: %v)", version, dirty)
	}

	// Force only rewrites schema_migrations; the tables are untouched.
	if !tableExists(t, database, "fluence_runs") {
		t.Error("Expected fluence_runs to survive a force")
	}
}

// TestGetLatestMigrationVersion verifies the embedded set reports its head version
func TestGetLatestMigrationVersion(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}

	latest, err := GetLatestMigrationVersion(migrations)
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	if latest != 2 {
		t.Errorf("Expected latest migration version 2, got %d", latest)
	}
}
