package database

import "context"

type FeedRepository interface {
	ListActiveFeeds(ctx context.Context) ([]Feed, error)
	ListFeeds(ctx context.Context) ([]Feed, error)
	GetFeed(ctx context.Context, id int64) (*Feed, error)
	GetFeedCount(ctx context.Context) (int, error)
	GetActiveFeedCount(ctx context.Context) (int, error)

	UpsertCategory(ctx context.Context, name, slug string) (int64, error)
	UpsertFeed(ctx context.Context, seed FeedSeed) (int64, error)
	UpdateFeedHealth(ctx context.Context, id int64, health FeedHealth) error
}

type ArticleRepository interface {
	FindArticleByURL(ctx context.Context, url string) (*Article, error)
	ListRecentArticles(ctx context.Context, feedID int64, limit int) ([]Article, error)
	GetArticleCount(ctx context.Context) (int, error)

	InsertArticle(ctx context.Context, article Article) (*Article, error)
}

var (
	_ FeedRepository    = (*SQLFeedRepository)(nil)
	_ ArticleRepository = (*SQLArticleRepository)(nil)
)
