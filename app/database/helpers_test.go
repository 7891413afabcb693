package database

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func seedFeed(t *testing.T, repo *SQLFeedRepository, url string, active bool) int64 {
	t.Helper()
	ctx := context.Background()

	categoryID, err := repo.UpsertCategory(ctx, "Technology", "technology")
	if err != nil {
		t.Fatalf("Failed to upsert category: %v", err)
	}

	feedID, err := repo.UpsertFeed(ctx, FeedSeed{
		Name:                 "Feed " + url,
		URL:                  url,
		CategoryID:           categoryID,
		IsActive:             active,
		FetchIntervalMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Failed to upsert feed: %v", err)
	}

	return feedID
}
