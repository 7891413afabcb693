package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
	"github.com/newshub/newshub/app/tasks"
)

const (
	defaultRSSItems = 50
	maxRSSItems     = 200
)

func NewHandler(feedRepo database.FeedRepository, articleRepo database.ArticleRepository,
	orchestrator tasks.OrchestratorInterface) *Handler {
	return &Handler{
		feedRepo:     feedRepo,
		articleRepo:  articleRepo,
		generator:    feed.NewGenerator(),
		orchestrator: orchestrator,
	}
}

// GetFeedRSS serves the newest stored articles of one feed as RSS 2.0.
func (h *Handler) GetFeedRSS(c *gin.Context) {
	feedID, err := parseFeedID(c.Param("id"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	limit := defaultRSSItems
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRSSItems)
	}

	ctx := c.Request.Context()

	f, err := h.feedRepo.GetFeed(ctx, feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed_id", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if f == nil {
		c.Status(http.StatusNotFound)
		return
	}

	articles, err := h.articleRepo.ListRecentArticles(ctx, f.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_recent_articles", "feed", f.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	selfLink := fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, c.Request.URL.Path)

	rss, err := h.generator.Run(*f, articles, selfLink)
	if err != nil {
		slog.Error("RSS generation error", "feed", f.Name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.Header("X-Feed-Name", f.Name)
	if f.LastFetchedAt != nil {
		c.Header("X-Last-Updated", f.LastFetchedAt.Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_feed_count", "error", err)
		health["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["feeds"] = feedCount

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	feedCount, err := h.feedRepo.GetFeedCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	activeCount, err := h.feedRepo.GetActiveFeedCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_active_feed_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	articleCount, err := h.articleRepo.GetArticleCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_article_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":        feedCount,
		"active_feeds": activeCount,
		"articles":     articleCount,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeeds(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		item := feedResponse{
			ID:                   f.ID,
			Name:                 f.Name,
			URL:                  f.URL,
			Category:             f.CategoryName,
			IsActive:             f.IsActive,
			ExtractContent:       f.ExtractContent,
			FetchCount:           f.FetchCount,
			ErrorCount:           f.ErrorCount,
			FetchIntervalMinutes: f.FetchIntervalMinutes,
		}
		if f.LastFetchedAt != nil {
			fetchedAt := f.LastFetchedAt.In(time.Local).Format(time.RFC3339)
			item.LastFetchedAt = &fetchedAt
		}
		if f.LastError != "" {
			lastError := f.LastError
			item.LastError = &lastError
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": response,
		"total": len(response),
	})
}

// APIRefreshFeeds runs every active feed and answers with the run summary.
// Partial failure is still a 200; only a storage failure is a 500. The run
// outlives the request so a disconnecting client does not cut it short.
func (h *Handler) APIRefreshFeeds(c *gin.Context) {
	summary := h.orchestrator.RunAllManually(context.WithoutCancel(c.Request.Context()))

	status := http.StatusOK
	if !summary.Success && strings.HasPrefix(summary.Message, "Error:") {
		status = http.StatusInternalServerError
	}

	c.JSON(status, summary)
}

func (h *Handler) APIRefreshFeed(c *gin.Context) {
	feedID, err := parseFeedID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tasks.FeedRunResult{
			Success: false,
			Message: "Invalid feed id",
		})
		return
	}

	result := h.orchestrator.RunOne(context.WithoutCancel(c.Request.Context()), feedID)

	status := http.StatusOK
	if !result.Success {
		switch result.Failure {
		case tasks.FailureNotFound:
			status = http.StatusNotFound
		case tasks.FailureStorage:
			status = http.StatusInternalServerError
		default:
			status = http.StatusBadGateway
		}
	}

	c.JSON(status, result)
}

func parseFeedID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("feed id must be positive")
	}
	return id, nil
}
