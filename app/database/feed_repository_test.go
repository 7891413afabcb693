package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpsertCategoryIsKeyedBySlug(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.UpsertCategory(ctx, "Tech", "technology")
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.UpsertCategory(ctx, "Technology", "technology")
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("Expected same category id for same slug, got %d and %d", first, second)
	}
}

func TestListActiveFeeds(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))
	ctx := context.Background()

	activeID := seedFeed(t, repo, "https://example.com/active.xml", true)
	seedFeed(t, repo, "https://example.com/inactive.xml", false)

	feeds, err := repo.ListActiveFeeds(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(feeds) != 1 {
		t.Fatalf("Expected 1 active feed, got %d", len(feeds))
	}
	if feeds[0].ID != activeID {
		t.Errorf("Expected feed %d, got %d", activeID, feeds[0].ID)
	}
	if feeds[0].CategoryName != "Technology" {
		t.Errorf("Expected category name 'Technology', got '%s'", feeds[0].CategoryName)
	}
	if feeds[0].LastFetchedAt != nil {
		t.Error("Expected new feed to have no last fetched time")
	}

	all, err := repo.ListFeeds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 feeds in total, got %d", len(all))
	}

	activeCount, err := repo.GetActiveFeedCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if activeCount != 1 {
		t.Errorf("Expected active count 1, got %d", activeCount)
	}
}

func TestGetFeedMissing(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	feed, err := repo.GetFeed(context.Background(), 999)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Error("Expected nil feed for unknown id")
	}
}

func TestUpdateFeedHealth(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))
	ctx := context.Background()
	feedID := seedFeed(t, repo, "https://example.com/feed.xml", true)

	failedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		err := repo.UpdateFeedHealth(ctx, feedID, FeedHealth{FetchedAt: failedAt, ErrorMessage: "timeout"})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	feed, err := repo.GetFeed(ctx, feedID)
	if err != nil {
		t.Fatal(err)
	}
	if feed.FetchCount != 2 || feed.ErrorCount != 2 {
		t.Errorf("Expected fetch/error counts 2/2, got %d/%d", feed.FetchCount, feed.ErrorCount)
	}
	if feed.LastError != "timeout" {
		t.Errorf("Expected last error 'timeout', got '%s'", feed.LastError)
	}
	if feed.LastFetchedAt == nil || !feed.LastFetchedAt.Equal(failedAt) {
		t.Errorf("Expected last fetched at %v, got %v", failedAt, feed.LastFetchedAt)
	}

	err = repo.UpdateFeedHealth(ctx, feedID, FeedHealth{FetchedAt: failedAt.Add(time.Hour), Success: true})
	if err != nil {
		t.Fatal(err)
	}

	feed, err = repo.GetFeed(ctx, feedID)
	if err != nil {
		t.Fatal(err)
	}
	if feed.FetchCount != 3 {
		t.Errorf("Expected fetch count 3, got %d", feed.FetchCount)
	}
	if feed.ErrorCount != 0 {
		t.Errorf("Expected error count reset to 0, got %d", feed.ErrorCount)
	}
	if feed.LastError != "" {
		t.Errorf("Expected last error cleared, got '%s'", feed.LastError)
	}
}

func TestUpdateFeedHealthUnknownFeed(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	err := repo.UpdateFeedHealth(context.Background(), 42, FeedHealth{FetchedAt: time.Now(), Success: true})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestUpsertFeedKeepsHealthFields(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))
	ctx := context.Background()
	feedID := seedFeed(t, repo, "https://example.com/feed.xml", true)

	if err := repo.UpdateFeedHealth(ctx, feedID, FeedHealth{FetchedAt: time.Now(), ErrorMessage: "boom"}); err != nil {
		t.Fatal(err)
	}

	againID := seedFeed(t, repo, "https://example.com/feed.xml", false)
	if againID != feedID {
		t.Fatalf("Expected upsert to keep id %d, got %d", feedID, againID)
	}

	feed, err := repo.GetFeed(ctx, feedID)
	if err != nil {
		t.Fatal(err)
	}
	if feed.IsActive {
		t.Error("Expected feed to be deactivated by upsert")
	}
	if feed.FetchCount != 1 || feed.ErrorCount != 1 || feed.LastError != "boom" {
		t.Errorf("Expected health fields untouched, got fetch=%d errors=%d last_error=%q",
			feed.FetchCount, feed.ErrorCount, feed.LastError)
	}
}
