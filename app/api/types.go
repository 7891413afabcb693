package api

import (
	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
	"github.com/newshub/newshub/app/tasks"
)

type GeneratorInterface interface {
	Run(feed database.Feed, articles []database.Article, selfLink string) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	feedRepo     database.FeedRepository
	articleRepo  database.ArticleRepository
	generator    GeneratorInterface
	orchestrator tasks.OrchestratorInterface
}

type feedResponse struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	URL                  string  `json:"url"`
	Category             string  `json:"category"`
	IsActive             bool    `json:"isActive"`
	ExtractContent       bool    `json:"extractContent"`
	LastFetchedAt        *string `json:"lastFetchedAt"`
	FetchCount           int     `json:"fetchCount"`
	ErrorCount           int     `json:"errorCount"`
	LastError            *string `json:"lastError"`
	FetchIntervalMinutes int     `json:"fetchIntervalMinutes"`
}
