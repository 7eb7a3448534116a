// Package testutil provides shared helpers for tests that need a real
// database.
package testutil

import (
	"context"
	"testing"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/storage"
)

// SetupTestDB creates a migrated in-memory database, registered for cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedEntity inserts an entity and fails the test on error.
func SeedEntity(t *testing.T, store *storage.SQLiteStorage, entity model.RegistryEntity) int64 {
	t.Helper()

	id, err := store.AddEntity(context.Background(), &entity)
	if err != nil {
		t.Fatalf("failed to seed entity %q: %v", entity.CanonicalName, err)
	}
	return id
}
