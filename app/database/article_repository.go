package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var articleColumns = []string{
	"id", "title", "COALESCE(description, '')", "COALESCE(content, '')", "url",
	"COALESCE(image_url, '')", "COALESCE(author, '')", "published_at", "feed_id", "category_id",
	"is_active", "view_count", "bookmark_count", "created_at", "updated_at",
}

// SQLArticleRepository handles database operations for articles
type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// FindArticleByURL looks up an article by exact url; a missing article yields nil without error
func (r *SQLArticleRepository) FindArticleByURL(ctx context.Context, url string) (*Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article by URL: %w", err)
	}

	return article, nil
}

// ListRecentArticles returns the newest active articles of a feed, newest first.
func (r *SQLArticleRepository) ListRecentArticles(ctx context.Context, feedID int64, limit int) ([]Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"feed_id": feedID, "is_active": true}).
		OrderBy("published_at DESC", "created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent articles query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// InsertArticle stores a new article. The unique index on url decides races
// between concurrent writers: the loser gets ErrArticleExists.
func (r *SQLArticleRepository) InsertArticle(ctx context.Context, article Article) (*Article, error) {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	query, args, err := sq.Insert("articles").
		Columns("id", "title", "description", "content", "url", "image_url", "author", "published_at",
			"feed_id", "category_id", "is_active", "view_count", "bookmark_count", "created_at", "updated_at").
		Values(article.ID, article.Title, nullString(article.Description), nullString(article.Content),
			article.URL, nullString(article.ImageURL), nullString(article.Author), article.PublishedAt.UTC(),
			article.FeedID, article.CategoryID, article.IsActive, article.ViewCount, article.BookmarkCount,
			article.CreatedAt, article.UpdatedAt).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrArticleExists
	}

	return &article, nil
}

func (r *SQLArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	err := row.Scan(
		&article.ID, &article.Title, &article.Description, &article.Content, &article.URL,
		&article.ImageURL, &article.Author, &article.PublishedAt, &article.FeedID, &article.CategoryID,
		&article.IsActive, &article.ViewCount, &article.BookmarkCount, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}
