package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
)

const MaxLastErrorLength = 1000

// Gate writes new articles and records feed health. Existing articles are
// never updated; the unique url index decides races between feeds.
type Gate struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	extractor   ExtractorInterface
	now         func() time.Time
}

// NewGate builds a gate. extractor may be nil, which disables body
// extraction for every feed.
func NewGate(feedRepo database.FeedRepository, articleRepo database.ArticleRepository, extractor ExtractorInterface) *Gate {
	return &Gate{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		extractor:   extractor,
		now:         time.Now,
	}
}

// Ingest persists the articles of one successful fetch in the given order
// and marks the feed healthy. A batch cut short by ctx is recorded as a
// failure so the dropped items are picked up by the next run.
func (g *Gate) Ingest(ctx context.Context, f database.Feed, articles []feed.Article) FetchOutcome {
	newCount := 0
	skipped := 0
	failed := 0
	processed := 0

	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}

		inserted, err := g.persist(ctx, f, article)
		processed++
		if err != nil {
			slog.Error("Failed to save article", "feed", f.Name, "title", article.Title, "error", err)
			failed++
			continue
		}

		if inserted {
			newCount++
		} else {
			skipped++
		}
	}

	slog.Debug("Articles ingested",
		"feed", f.Name,
		"total", len(articles),
		"new", newCount,
		"skipped", skipped,
		"failed", failed)

	if err := ctx.Err(); err != nil && processed < len(articles) {
		slog.Warn("Ingestion interrupted", "feed", f.Name, "processed", processed, "total", len(articles), "error", err)
		outcome := g.RecordFailure(ctx, f, fmt.Errorf("ingestion interrupted after %d of %d articles: %w", processed, len(articles), err))
		outcome.NewArticleCount = newCount
		return outcome
	}

	outcome := FetchOutcome{
		FeedID:          f.ID,
		FeedName:        f.Name,
		Success:         true,
		NewArticleCount: newCount,
	}
	g.recordHealth(ctx, f, outcome)

	return outcome
}

// RecordFailure marks a feed-level failure on the feed without touching articles.
func (g *Gate) RecordFailure(ctx context.Context, f database.Feed, err error) FetchOutcome {
	outcome := FetchOutcome{
		FeedID:       f.ID,
		FeedName:     f.Name,
		Success:      false,
		ErrorMessage: err.Error(),
	}
	g.recordHealth(ctx, f, outcome)

	return outcome
}

// persist reports whether a new row was written. Empty and already known
// urls are skips, not errors.
func (g *Gate) persist(ctx context.Context, f database.Feed, article feed.Article) (bool, error) {
	url := strings.TrimSpace(article.URL)
	if url == "" {
		return false, nil
	}

	existing, err := g.articleRepo.FindArticleByURL(ctx, url)
	if err != nil {
		return false, &PersistenceError{URL: url, Err: err}
	}
	if existing != nil {
		return false, nil
	}

	if f.ExtractContent && g.extractor != nil {
		article = g.extractContent(ctx, f, article)
	}

	_, err = g.articleRepo.InsertArticle(ctx, database.Article{
		Title:       article.Title,
		Description: article.Description,
		Content:     article.Content,
		URL:         url,
		ImageURL:    article.ImageURL,
		Author:      article.Author,
		PublishedAt: article.PublishedAt,
		FeedID:      f.ID,
		CategoryID:  f.CategoryID,
		IsActive:    true,
	})
	if errors.Is(err, database.ErrArticleExists) {
		slog.Debug("Article inserted concurrently by another feed", "feed", f.Name, "url", url)
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{URL: url, Err: err}
	}

	return true, nil
}

func (g *Gate) recordHealth(ctx context.Context, f database.Feed, outcome FetchOutcome) {
	health := database.FeedHealth{
		FetchedAt:    g.now().UTC(),
		Success:      outcome.Success,
		ErrorMessage: truncateMessage(outcome.ErrorMessage, MaxLastErrorLength),
	}

	// The attempt is recorded even when the run that made it was cancelled.
	if err := g.feedRepo.UpdateFeedHealth(context.WithoutCancel(ctx), f.ID, health); err != nil {
		slog.Error("Failed to update feed stats", "feed", f.Name, "error", err)
	}
}

func truncateMessage(message string, limit int) string {
	count := 0
	for i := range message {
		if count == limit {
			return message[:i]
		}
		count++
	}
	return message
}
