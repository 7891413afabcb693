package tasks

import "fmt"

// FetchOutcome is the result of one pipeline execution for one feed.
type FetchOutcome struct {
	FeedID          int64
	FeedName        string
	Success         bool
	NewArticleCount int
	ErrorMessage    string
}

// RunSummary is returned by a manual all-feeds run.
type RunSummary struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	TotalFeeds       int    `json:"totalFeeds"`
	SuccessfulFeeds  int    `json:"successfulFeeds"`
	FailedFeeds      int    `json:"failedFeeds"`
	TotalNewArticles int    `json:"totalNewArticles"`
	DurationMs       int64  `json:"durationMs"`
}

// RunFailure tells callers why a single-feed run did not succeed.
type RunFailure int

const (
	FailureNone RunFailure = iota
	FailureNotFound
	FailureFetch
	FailureStorage
)

// FeedRunResult is returned by a manual single-feed run.
type FeedRunResult struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	NewArticleCount int        `json:"newArticleCount"`
	Failure         RunFailure `json:"-"`
}

// PersistenceError is an article-level write failure. It is logged and
// never fails the feed.
type PersistenceError struct {
	URL string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist article %s: %v", e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
