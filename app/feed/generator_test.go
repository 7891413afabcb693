package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/newshub/newshub/app/database"
)

func TestGeneratorRun(t *testing.T) {
	generator := NewGenerator()

	f := database.Feed{
		ID:           7,
		Name:         "Tech Daily",
		URL:          "https://tech.example.com/rss",
		CategoryName: "Technology",
	}

	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	articles := []database.Article{
		{
			Title:       "Rust & Go",
			Description: "A <comparison>",
			Content:     "Long body with ]]> inside",
			URL:         "https://tech.example.com/1",
			ImageURL:    "https://tech.example.com/1.png?w=600",
			Author:      "Jane",
			PublishedAt: published,
		},
		{
			Title:       "Second",
			URL:         "https://tech.example.com/2",
			PublishedAt: published.Add(-time.Hour),
		},
	}

	rss, err := generator.Run(f, articles, "http://localhost:8080/feeds/7/rss")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<title>Tech Daily</title>`,
		`<description>Articles ingested from https://tech.example.com/rss</description>`,
		`<atom:link href="http://localhost:8080/feeds/7/rss" rel="self" type="application/rss+xml" />`,
		`<category>Technology</category>`,
		`<lastBuildDate>Mon, 03 Jul 2023 10:00:00 +0000</lastBuildDate>`,
		`<title>Rust &amp; Go</title>`,
		`<description>A &lt;comparison&gt;</description>`,
		`<guid isPermaLink="true">https://tech.example.com/1</guid>`,
		`<dc:creator>Jane</dc:creator>`,
		`<enclosure url="https://tech.example.com/1.png?w=600" length="0" type="image/png" />`,
		`<description>No description available</description>`,
		`]]]]><![CDATA[>`,
	}

	for _, fragment := range expected {
		if !strings.Contains(rss, fragment) {
			t.Errorf("Expected RSS to contain %q", fragment)
		}
	}

	if strings.Count(rss, "<item>") != 2 {
		t.Errorf("Expected 2 items, got %d", strings.Count(rss, "<item>"))
	}
}

func TestGeneratorOutputIsReadable(t *testing.T) {
	f := database.Feed{Name: "Round trip", URL: "https://rt.example.com/rss"}
	articles := []database.Article{
		{Title: "Only", URL: "https://rt.example.com/only", Content: "<p>Body</p>", PublishedAt: time.Now()},
	}

	rss, err := NewGenerator().Run(f, articles, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	server := serveString(rss)
	defer server.Close()

	items, err := NewFetcher(FetcherOptions{}).Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected generated RSS to parse, got %v", err)
	}
	if len(items) != 1 || items[0].Link != "https://rt.example.com/only" {
		t.Errorf("Unexpected items %+v", items)
	}
}

func TestImageMIMEType(t *testing.T) {
	tests := map[string]string{
		"https://x.example.com/a.PNG":      "image/png",
		"https://x.example.com/a.gif#frag": "image/gif",
		"https://x.example.com/a.webp?x=1": "image/webp",
		"https://x.example.com/a.svg":      "image/svg+xml",
		"https://x.example.com/a":          "image/jpeg",
	}

	for input, expected := range tests {
		if got := imageMIMEType(input); got != expected {
			t.Errorf("imageMIMEType(%q): expected '%s', got '%s'", input, expected, got)
		}
	}
}
