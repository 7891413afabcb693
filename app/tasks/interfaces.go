package tasks

import (
	"context"

	"github.com/newshub/newshub/app/feed"
)

type FetcherInterface interface {
	Run(ctx context.Context, url string) ([]feed.RawItem, error)
}

type NormalizerInterface interface {
	Run(item feed.RawItem) feed.Article
}

// ExtractorInterface pulls the readable body out of an article page.
type ExtractorInterface interface {
	Extract(ctx context.Context, pageURL string) (*feed.ExtractedContent, error)
}

// OrchestratorInterface is what the HTTP layer and the scheduler call into.
// Example usage:
//
//	orchestrator := NewOrchestrator(feedRepo, fetcher, normalizer, gate, workerCount)
//	summary := orchestrator.RunAllManually(ctx)
//	result := orchestrator.RunOne(ctx, feedID)
type OrchestratorInterface interface {
	RunAll(ctx context.Context)
	RunAllManually(ctx context.Context) RunSummary
	RunOne(ctx context.Context, feedID int64) FeedRunResult
}

var (
	_ FetcherInterface      = (*feed.Fetcher)(nil)
	_ NormalizerInterface   = (*feed.Normalizer)(nil)
	_ ExtractorInterface    = (*feed.ContentExtractor)(nil)
	_ OrchestratorInterface = (*Orchestrator)(nil)
)
