package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/beamline-data/fluence.report/internal/db"
	"github.com/beamline-data/fluence.report/internal/fluence"
)

// setupStoreTestDB opens a fresh database in a temp dir with the full
// migrated schema applied. Running the real migrations keeps these tests
// from drifting out of sync with the schema the tools deploy.
func setupStoreTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	migrations, err := db.Migrations()
	if err != nil {
		database.Close()
		t.Fatalf("failed to load migrations: %v", err)
	}
	if err := database.MigrateUp(migrations); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test db: %v", err)
	}

	cleanup := func() {
		database.Close()
	}

	return database.DB, cleanup
}

// testGeometry returns a session geometry with every field populated.
func testGeometry() fluence.SessionGeometry {
	return fluence.SessionGeometry{
		Area:        fluence.ScanArea{StartX: 10, StartY: 20, StopX: 16, StopY: 26},
		BeamFWHMX:   2.2,
		BeamFWHMY:   2.0,
		RowsPerScan: 4,
		DUTRect:     &fluence.Rect{MinX: 11, MinY: 21, MaxX: 15, MaxY: 25},
	}
}

// seedSession inserts a named session and returns its generated ID.
func seedSession(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	store := NewSessionStore(db)
	session := &Session{Name: name, Geometry: testGeometry()}
	if err := store.Insert(session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session.SessionID
}
