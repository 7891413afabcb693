package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newshub/newshub/app/database"
)

const DefaultFetchIntervalMinutes = 30

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Seed is the administrative list of categories and their feeds.
type Seed struct {
	Categories []CategorySeed `yaml:"categories"`
}

type CategorySeed struct {
	Name  string     `yaml:"name"`
	Slug  string     `yaml:"slug"`
	Feeds []FeedSeed `yaml:"feeds"`
}

type FeedSeed struct {
	Name                 string `yaml:"name"`
	URL                  string `yaml:"url"`
	Description          string `yaml:"description"`
	Active               *bool  `yaml:"active"`
	ExtractContent       bool   `yaml:"extract_content"`
	FetchIntervalMinutes int    `yaml:"fetch_interval_minutes"`
}

// LoadSeed reads and validates a seed file. A missing file yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Seed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range seed.Categories {
		category := &seed.Categories[i]
		category.Name = strings.TrimSpace(category.Name)
		if category.Slug == "" {
			category.Slug = Slugify(category.Name)
		}
		for j := range category.Feeds {
			feed := &category.Feeds[j]
			feed.Name = strings.TrimSpace(feed.Name)
			feed.URL = strings.TrimSpace(feed.URL)
			if feed.FetchIntervalMinutes == 0 {
				feed.FetchIntervalMinutes = DefaultFetchIntervalMinutes
			}
		}
	}

	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}

	return &seed, nil
}

func (s *Seed) FeedCount() int {
	count := 0
	for _, category := range s.Categories {
		count += len(category.Feeds)
	}
	return count
}

func (s *Seed) validate() error {
	seenSlugs := make(map[string]bool)
	seenURLs := make(map[string]bool)

	for i, category := range s.Categories {
		if category.Name == "" {
			return fmt.Errorf("category at index %d: name is required", i)
		}
		if category.Slug == "" {
			return fmt.Errorf("category %q: slug is empty", category.Name)
		}
		if seenSlugs[category.Slug] {
			return fmt.Errorf("category %q: duplicate slug %q", category.Name, category.Slug)
		}
		seenSlugs[category.Slug] = true

		for j, feed := range category.Feeds {
			if feed.Name == "" {
				return fmt.Errorf("category %q, feed at index %d: name is required", category.Name, j)
			}
			if err := validateFeedURL(feed.URL); err != nil {
				return fmt.Errorf("feed %q: %w", feed.Name, err)
			}
			if seenURLs[feed.URL] {
				return fmt.Errorf("feed %q: duplicate url %s", feed.Name, feed.URL)
			}
			seenURLs[feed.URL] = true

			if feed.FetchIntervalMinutes < 0 {
				return fmt.Errorf("feed %q: fetch interval must be non-negative", feed.Name)
			}
		}
	}

	return nil
}

// Apply upserts every category and feed. Feed health fields are never written here.
func (s *Seed) Apply(ctx context.Context, repo database.FeedRepository) (int, error) {
	registered := 0

	for _, category := range s.Categories {
		categoryID, err := repo.UpsertCategory(ctx, category.Name, category.Slug)
		if err != nil {
			return registered, fmt.Errorf("category %q: %w", category.Name, err)
		}

		for _, feed := range category.Feeds {
			active := feed.Active == nil || *feed.Active

			feedID, err := repo.UpsertFeed(ctx, database.FeedSeed{
				Name:                 feed.Name,
				URL:                  feed.URL,
				Description:          feed.Description,
				CategoryID:           categoryID,
				IsActive:             active,
				ExtractContent:       feed.ExtractContent,
				FetchIntervalMinutes: feed.FetchIntervalMinutes,
			})
			if err != nil {
				slog.Warn("Failed to register feed", "feed", feed.Name, "url", feed.URL, "error", err)
				continue
			}

			slog.Debug("Registered feed", "feed", feed.Name, "id", feedID, "category", category.Slug, "active", active)
			registered++
		}
	}

	return registered, nil
}

func Slugify(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func validateFeedURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}

	return nil
}
