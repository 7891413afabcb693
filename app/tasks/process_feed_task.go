package tasks

import (
	"context"
	"log/slog"

	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
)

// ProcessFeedTask is one pipeline execution for one feed:
// fetch, normalize every item, hand the batch to the gate.
type ProcessFeedTask struct {
	Task
	Feed       database.Feed
	fetcher    FetcherInterface
	normalizer NormalizerInterface
	gate       *Gate
}

func NewProcessFeedTask(f database.Feed, fetcher FetcherInterface, normalizer NormalizerInterface, gate *Gate) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, f.Name),
		Feed:       f,
		fetcher:    fetcher,
		normalizer: normalizer,
		gate:       gate,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) FetchOutcome {
	t.Start()

	slog.Debug("Parsing feed", "id", t.ID, "feed", t.FeedName, "url", t.Feed.URL)

	items, err := t.fetcher.Run(ctx, t.Feed.URL)
	if err != nil {
		slog.Error("Error parsing feed", "feed", t.FeedName, "url", t.Feed.URL, "error", err)
		return t.gate.RecordFailure(ctx, t.Feed, err)
	}

	if len(items) == 0 {
		slog.Warn("No items found in feed", "feed", t.FeedName)
	}

	articles := make([]feed.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, t.normalizer.Run(item))
	}

	outcome := t.gate.Ingest(ctx, t.Feed, articles)

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(items),
		"new", outcome.NewArticleCount)

	return outcome
}
