// Package testutil provides shared test helpers for setting up journals and databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/storage"
)

// TestDB creates a temporary SQLite day index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "daybook-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestJournal creates a temporary journal directory seeded with files
// (relative path to content) and returns its root and store.
func TestJournal(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.DefaultExtension)
	if err != nil {
		t.Fatal(err)
	}
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}
	return dir, store
}
