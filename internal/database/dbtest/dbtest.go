// Package dbtest opens throwaway in-memory databases at the current schema
// for repository and service tests.
package dbtest

import (
	"database/sql"
	"testing"

	"runner-progression/internal/database"

	_ "github.com/mattn/go-sqlite3"
)

// Open returns a migrated in-memory database that is torn down with the
// test. A single connection keeps every query on the same :memory: instance.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate in-memory database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close in-memory database: %v", err)
		}
	})

	return db
}
