// Package testutil provides test helpers for building in-memory stores
// with seeded catalog data.
package testutil

import (
	"context"
	"testing"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store and registers its
// cleanup with the test.
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

// SeedTargets stores the given targets, failing the test on error.
func SeedTargets(t *testing.T, store *storage.SQLiteStorage, targets ...model.Target) {
	t.Helper()

	ctx := context.Background()
	for i := range targets {
		if err := store.SaveTarget(ctx, &targets[i]); err != nil {
			t.Fatalf("failed to seed target %s/%s: %v", targets[i].Type, targets[i].ID, err)
		}
	}
}

// SeedRecords stores the given records, failing the test on error.
func SeedRecords(t *testing.T, store *storage.SQLiteStorage, records ...model.Record) {
	t.Helper()

	if err := store.SaveRecords(context.Background(), records); err != nil {
		t.Fatalf("failed to seed records: %v", err)
	}
}
