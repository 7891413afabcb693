package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/newshub/newshub/app/database"
)

const (
	DefaultWorkerCount = 5

	MessageNoActiveFeeds = "No active feeds found"
	MessageFeedNotFound  = "Feed not found or inactive"
)

// Orchestrator fans a run out over active feeds with a fixed number of
// workers. One feed's failure never cancels or blocks the others.
type Orchestrator struct {
	feedRepo    database.FeedRepository
	fetcher     FetcherInterface
	normalizer  NormalizerInterface
	gate        *Gate
	workerCount int

	// feedLocks holds one *sync.Mutex per feed id so a manual run and a
	// scheduled run never process the same feed at the same time.
	feedLocks sync.Map
}

func NewOrchestrator(feedRepo database.FeedRepository, fetcher FetcherInterface, normalizer NormalizerInterface,
	gate *Gate, workerCount int) *Orchestrator {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	return &Orchestrator{
		feedRepo:    feedRepo,
		fetcher:     fetcher,
		normalizer:  normalizer,
		gate:        gate,
		workerCount: workerCount,
	}
}

// RunAll is the scheduled entry point. Outcomes end up in feed health fields
// and logs only.
func (o *Orchestrator) RunAll(ctx context.Context) {
	slog.Info("Starting scheduled feed parsing")

	feeds, err := o.feedRepo.ListActiveFeeds(ctx)
	if err != nil {
		slog.Error("Error during scheduled feed parsing", "error", err)
		return
	}

	if len(feeds) == 0 {
		slog.Warn(MessageNoActiveFeeds)
		return
	}

	slog.Info("Found active feeds to parse", "count", len(feeds))

	start := time.Now()
	summary := summarize(o.dispatch(ctx, feeds))

	slog.Info("Feed parsing completed",
		"successful", summary.SuccessfulFeeds,
		"failed", summary.FailedFeeds,
		"new_articles", summary.TotalNewArticles,
		"duration", time.Since(start))
}

func (o *Orchestrator) RunAllManually(ctx context.Context) RunSummary {
	slog.Info("Manual feed parsing triggered")

	feeds, err := o.feedRepo.ListActiveFeeds(ctx)
	if err != nil {
		slog.Error("Error during manual feed parsing", "error", err)
		return RunSummary{
			Success: false,
			Message: fmt.Sprintf("Error: %v", err),
		}
	}

	if len(feeds) == 0 {
		return RunSummary{
			Success: false,
			Message: MessageNoActiveFeeds,
		}
	}

	start := time.Now()
	summary := summarize(o.dispatch(ctx, feeds))
	summary.DurationMs = time.Since(start).Milliseconds()
	summary.Success = true
	summary.Message = fmt.Sprintf("Parsed %d feeds in %dms", summary.TotalFeeds, summary.DurationMs)

	slog.Info("Manual feed parsing completed",
		"successful", summary.SuccessfulFeeds,
		"failed", summary.FailedFeeds,
		"new_articles", summary.TotalNewArticles,
		"duration_ms", summary.DurationMs)

	return summary
}

func (o *Orchestrator) RunOne(ctx context.Context, feedID int64) FeedRunResult {
	slog.Info("Manual parsing requested for feed", "feed_id", feedID)

	f, err := o.feedRepo.GetFeed(ctx, feedID)
	if err != nil {
		slog.Error("Error parsing feed", "feed_id", feedID, "error", err)
		return FeedRunResult{
			Success: false,
			Message: fmt.Sprintf("Error: %v", err),
			Failure: FailureStorage,
		}
	}

	if f == nil || !f.IsActive {
		return FeedRunResult{
			Success: false,
			Message: MessageFeedNotFound,
			Failure: FailureNotFound,
		}
	}

	outcome := o.process(ctx, *f)
	if !outcome.Success {
		return FeedRunResult{
			Success: false,
			Message: fmt.Sprintf("Error: %s", outcome.ErrorMessage),
			Failure: FailureFetch,
		}
	}

	return FeedRunResult{
		Success:         true,
		Message:         fmt.Sprintf("Successfully parsed feed: %s", f.Name),
		NewArticleCount: outcome.NewArticleCount,
	}
}

// dispatch runs every feed through the pipeline and returns one outcome per
// feed, in the order of feeds.
func (o *Orchestrator) dispatch(ctx context.Context, feeds []database.Feed) []FetchOutcome {
	outcomes := make([]FetchOutcome, len(feeds))
	jobs := make(chan int)

	workerCount := min(o.workerCount, len(feeds))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = o.process(ctx, feeds[idx])
			}
		}()
	}

	for idx := range feeds {
		jobs <- idx
	}
	close(jobs)

	wg.Wait()

	return outcomes
}

// process runs one feed under its lock. A panic inside the pipeline is
// recorded as a failure of that feed only.
func (o *Orchestrator) process(ctx context.Context, f database.Feed) (outcome FetchOutcome) {
	lock := o.feedLock(f.ID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Feed pipeline panicked", "feed", f.Name, "panic", r)
			outcome = o.gate.RecordFailure(ctx, f, fmt.Errorf("internal error: %v", r))
		}
	}()

	return NewProcessFeedTask(f, o.fetcher, o.normalizer, o.gate).Execute(ctx)
}

func (o *Orchestrator) feedLock(feedID int64) *sync.Mutex {
	lock, _ := o.feedLocks.LoadOrStore(feedID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func summarize(outcomes []FetchOutcome) RunSummary {
	summary := RunSummary{TotalFeeds: len(outcomes)}

	for _, outcome := range outcomes {
		if outcome.Success {
			summary.SuccessfulFeeds++
			summary.TotalNewArticles += outcome.NewArticleCount
		} else {
			summary.FailedFeeds++
		}
	}

	return summary
}
