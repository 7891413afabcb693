package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
)

const extractionTimeout = 15 * time.Second

// extractContent replaces the feed-supplied body with the readable body of
// the linked page when that one is longer. Failures keep the article as is.
func (g *Gate) extractContent(ctx context.Context, f database.Feed, article feed.Article) feed.Article {
	extractCtx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	start := time.Now()

	extracted, err := g.extractor.Extract(extractCtx, article.URL)
	if err != nil {
		slog.Warn("Failed to extract content for article", "feed", f.Name, "url", article.URL, "error", err)
		return article
	}

	if len([]rune(extracted.Content)) > len([]rune(article.Content)) {
		article.Content = extracted.Content
	}
	if article.ImageURL == "" {
		article.ImageURL = extracted.ImageURL
	}

	slog.Debug("Content extracted",
		"feed", f.Name,
		"url", article.URL,
		"duration", time.Since(start),
		"content_length", len(article.Content))

	return article
}
