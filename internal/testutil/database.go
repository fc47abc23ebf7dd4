// Package testutil provides shared fixtures for package tests: an in-memory
// run store and a small household with a known outcome.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/oic-ledger/internal/storage"
)

// SetupTestDB creates a migrated in-memory run store that is closed when the
// test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
