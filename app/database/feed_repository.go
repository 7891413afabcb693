package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var feedColumns = []string{
	"f.id", "f.name", "f.url", "COALESCE(f.description, '')", "f.category_id", "COALESCE(c.name, '')",
	"f.is_active", "f.extract_content", "f.last_fetched_at", "f.fetch_count", "f.error_count",
	"COALESCE(f.last_error, '')", "f.fetch_interval_minutes", "f.created_at", "f.updated_at",
}

// SQLFeedRepository handles database operations for feeds and their categories
type SQLFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

func (r *SQLFeedRepository) selectFeeds() sq.SelectBuilder {
	return sq.Select(feedColumns...).
		From("feeds f").
		LeftJoin("categories c ON c.id = f.category_id")
}

// ListActiveFeeds returns every feed with is_active set, joined with its category
func (r *SQLFeedRepository) ListActiveFeeds(ctx context.Context) ([]Feed, error) {
	query, args, err := r.selectFeeds().
		Where(sq.Eq{"f.is_active": true}).
		OrderBy("f.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active feeds query: %w", err)
	}

	feeds, err := r.queryFeeds(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active feeds: %w", err)
	}

	return feeds, nil
}

func (r *SQLFeedRepository) ListFeeds(ctx context.Context) ([]Feed, error) {
	query, args, err := r.selectFeeds().OrderBy("f.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feeds query: %w", err)
	}

	feeds, err := r.queryFeeds(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	return feeds, nil
}

// GetFeed retrieves a feed by id; a missing feed yields nil without error
func (r *SQLFeedRepository) GetFeed(ctx context.Context, id int64) (*Feed, error) {
	query, args, err := r.selectFeeds().Where(sq.Eq{"f.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feed query: %w", err)
	}

	feed, err := scanFeed(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by ID: %w", err)
	}

	return feed, nil
}

func (r *SQLFeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *SQLFeedRepository) GetActiveFeedCount(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("feeds").Where(sq.Eq{"is_active": true}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build active feed count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get active feed count: %w", err)
	}
	return count, nil
}

// UpsertCategory inserts a category or renames the existing one with the same slug
func (r *SQLFeedRepository) UpsertCategory(ctx context.Context, name, slug string) (int64, error) {
	query, args, err := sq.Insert("categories").
		Columns("name", "slug", "created_at").
		Values(name, slug, time.Now().UTC()).
		Suffix("ON CONFLICT (slug) DO UPDATE SET name = excluded.name RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build category upsert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert category: %w", err)
	}

	return id, nil
}

// UpsertFeed inserts or updates the administrative fields of a feed keyed by url.
// Fetch-health columns are left untouched.
func (r *SQLFeedRepository) UpsertFeed(ctx context.Context, seed FeedSeed) (int64, error) {
	now := time.Now().UTC()

	query, args, err := sq.Insert("feeds").
		Columns("name", "url", "description", "category_id", "is_active", "extract_content",
			"fetch_interval_minutes", "created_at", "updated_at").
		Values(seed.Name, seed.URL, nullString(seed.Description), seed.CategoryID, seed.IsActive,
			seed.ExtractContent, seed.FetchIntervalMinutes, now, now).
		Suffix(`ON CONFLICT (url) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category_id = excluded.category_id,
			is_active = excluded.is_active,
			extract_content = excluded.extract_content,
			fetch_interval_minutes = excluded.fetch_interval_minutes,
			updated_at = excluded.updated_at
		RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build feed upsert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

// UpdateFeedHealth records one fetch attempt in a single UPDATE statement.
// Counters are incremented in SQL so the row never goes through a read-modify-write.
func (r *SQLFeedRepository) UpdateFeedHealth(ctx context.Context, id int64, health FeedHealth) error {
	fetchedAt := health.FetchedAt.UTC()

	builder := sq.Update("feeds").
		Set("last_fetched_at", fetchedAt).
		Set("fetch_count", sq.Expr("fetch_count + 1")).
		Set("updated_at", fetchedAt).
		Where(sq.Eq{"id": id})

	if health.Success {
		builder = builder.
			Set("error_count", 0).
			Set("last_error", nil)
	} else {
		builder = builder.
			Set("error_count", sq.Expr("error_count + 1")).
			Set("last_error", health.ErrorMessage)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build feed health update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feed health: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *SQLFeedRepository) queryFeeds(ctx context.Context, query string, args ...any) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.URL, &feed.Description, &feed.CategoryID, &feed.CategoryName,
		&feed.IsActive, &feed.ExtractContent, &feed.LastFetchedAt, &feed.FetchCount, &feed.ErrorCount,
		&feed.LastError, &feed.FetchIntervalMinutes, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
