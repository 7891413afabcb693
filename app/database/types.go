package database

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrArticleExists is returned by InsertArticle when the url is already stored.
	ErrArticleExists = errors.New("article with this url already exists")
)

type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Feed struct {
	ID                   int64
	Name                 string
	URL                  string
	Description          string
	CategoryID           int64
	CategoryName         string
	IsActive             bool
	ExtractContent       bool
	LastFetchedAt        *time.Time
	FetchCount           int
	ErrorCount           int
	LastError            string // empty when the last fetch succeeded
	FetchIntervalMinutes int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FeedSeed carries the administrative fields of a feed; health fields are
// never part of it.
type FeedSeed struct {
	Name                 string
	URL                  string
	Description          string
	CategoryID           int64
	IsActive             bool
	ExtractContent       bool
	FetchIntervalMinutes int
}

// FeedHealth is the outcome of one fetch attempt as recorded on the feed row.
type FeedHealth struct {
	FetchedAt    time.Time
	Success      bool
	ErrorMessage string
}

type Article struct {
	ID            string
	Title         string
	Description   string
	Content       string
	URL           string
	ImageURL      string
	Author        string
	PublishedAt   time.Time
	FeedID        int64
	CategoryID    int64
	IsActive      bool
	ViewCount     int
	BookmarkCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
