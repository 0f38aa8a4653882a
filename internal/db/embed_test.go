package db

import (
	"io/fs"
	"strings"
	"testing"
)

// TestMigrations_PairsComplete verifies every up migration has a matching down
func TestMigrations_PairsComplete(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}

	ups, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		t.Fatalf("Failed to glob up migrations: %v", err)
	}
	downs, err := fs.Glob(migrations, "*.down.sql")
	if err != nil {
		t.Fatalf("Failed to glob down migrations: %v", err)
	}

	if len(ups) == 0 {
		t.Fatal("No up migrations embedded")
	}
	if len(ups) != len(downs) {
		t.Errorf("Mismatched migration pairs: %d up, %d down", len(ups), len(downs))
	}

	downSet := make(map[string]bool, len(downs))
	for _, d := range downs {
		downSet[d] = true
	}
	for _, u := range ups {
		want := strings.Replace(u, ".up.sql", ".down.sql", 1)
		if !downSet[want] {
			t.Errorf("Up migration %s has no matching %s", u, want)
		}
	}
}

// TestMigrations_FilesReadable verifies the embedded files have content
func TestMigrations_FilesReadable(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}

	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		t.Fatalf("Failed to read migrations root: %v", err)
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(migrations, entry.Name())
		if err != nil {
			t.Errorf("Failed to read %s: %v", entry.Name(), err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("Migration %s is empty", entry.Name())
		}
	}
}
