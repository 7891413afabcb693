package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
)

type testStore struct {
	feedRepo    *database.SQLFeedRepository
	articleRepo *database.SQLArticleRepository
	categoryID  int64
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "tasks.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	categoryID, err := feedRepo.UpsertCategory(context.Background(), "World", "world")
	if err != nil {
		t.Fatalf("Failed to upsert category: %v", err)
	}

	return &testStore{
		feedRepo:    feedRepo,
		articleRepo: database.NewArticleRepository(db),
		categoryID:  categoryID,
	}
}

func (s *testStore) addFeed(t *testing.T, name, url string, active, extract bool) database.Feed {
	t.Helper()
	ctx := context.Background()

	id, err := s.feedRepo.UpsertFeed(ctx, database.FeedSeed{
		Name:                 name,
		URL:                  url,
		CategoryID:           s.categoryID,
		IsActive:             active,
		ExtractContent:       extract,
		FetchIntervalMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Failed to upsert feed: %v", err)
	}

	f, err := s.feedRepo.GetFeed(ctx, id)
	if err != nil || f == nil {
		t.Fatalf("Failed to load feed %d: %v", id, err)
	}
	return *f
}

func (s *testStore) feed(t *testing.T, id int64) database.Feed {
	t.Helper()

	f, err := s.feedRepo.GetFeed(context.Background(), id)
	if err != nil || f == nil {
		t.Fatalf("Failed to load feed %d: %v", id, err)
	}
	return *f
}

func (s *testStore) articleCount(t *testing.T) int {
	t.Helper()

	count, err := s.articleRepo.GetArticleCount(context.Background())
	if err != nil {
		t.Fatalf("Failed to count articles: %v", err)
	}
	return count
}

type fetchResponse struct {
	items []feed.RawItem
	err   error
	panic bool
}

type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]fetchResponse
	calls     map[string]int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		responses: make(map[string]fetchResponse),
		calls:     make(map[string]int),
	}
}

func (m *mockFetcher) set(url string, response fetchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = response
}

func (m *mockFetcher) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

func (m *mockFetcher) Run(ctx context.Context, url string) ([]feed.RawItem, error) {
	m.mu.Lock()
	m.calls[url]++
	response, ok := m.responses[url]
	m.mu.Unlock()

	if !ok {
		return nil, &feed.FetchError{Kind: feed.FetchErrorNetwork, URL: url, Err: errors.New("no such host")}
	}
	if response.panic {
		panic("unexpected document shape")
	}
	return response.items, response.err
}

type mockExtractor struct {
	content *feed.ExtractedContent
	err     error
	calls   int
}

func (m *mockExtractor) Extract(ctx context.Context, pageURL string) (*feed.ExtractedContent, error) {
	m.calls++
	return m.content, m.err
}

// flakyArticleRepository fails inserts for one url and delegates the rest.
type flakyArticleRepository struct {
	database.ArticleRepository
	failURL string
}

func (r *flakyArticleRepository) InsertArticle(ctx context.Context, article database.Article) (*database.Article, error) {
	if article.URL == r.failURL {
		return nil, errors.New("disk I/O error")
	}
	return r.ArticleRepository.InsertArticle(ctx, article)
}

// brokenFeedRepository fails every read.
type brokenFeedRepository struct {
	database.FeedRepository
}

func (r *brokenFeedRepository) ListActiveFeeds(ctx context.Context) ([]database.Feed, error) {
	return nil, errors.New("database is locked")
}

func (r *brokenFeedRepository) GetFeed(ctx context.Context, id int64) (*database.Feed, error) {
	return nil, errors.New("database is locked")
}

// cancellingFetcher cancels the run while the document is being fetched and
// still hands back its items.
type cancellingFetcher struct {
	cancel context.CancelFunc
	items  []feed.RawItem
}

func (f *cancellingFetcher) Run(ctx context.Context, url string) ([]feed.RawItem, error) {
	f.cancel()
	return f.items, nil
}

// trackingFetcher holds every call for delay and records how many calls
// were in flight at once.
type trackingFetcher struct {
	mu       sync.Mutex
	delay    time.Duration
	inFlight int
	peak     int
	calls    int
}

func (f *trackingFetcher) Run(ctx context.Context, url string) ([]feed.RawItem, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return items(url + "/1"), nil
}

func (f *trackingFetcher) stats() (calls, peak int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.peak
}

func items(urls ...string) []feed.RawItem {
	result := make([]feed.RawItem, 0, len(urls))
	for _, url := range urls {
		result = append(result, feed.RawItem{Title: "Article " + url, Link: url})
	}
	return result
}

func newTestOrchestrator(store *testStore, fetcher FetcherInterface) *Orchestrator {
	gate := NewGate(store.feedRepo, store.articleRepo, nil)
	return NewOrchestrator(store.feedRepo, fetcher, feed.NewNormalizer(), gate, 3)
}
