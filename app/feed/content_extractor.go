package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

type ExtractedContent struct {
	Content  string
	ImageURL string
}

// ContentExtractor fetches an article page and pulls its main body out with readability.
type ContentExtractor struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

func NewContentExtractor(client *http.Client, timeout time.Duration, userAgent string) *ContentExtractor {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &ContentExtractor{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

func (e *ContentExtractor) Extract(ctx context.Context, pageURL string) (*ExtractedContent, error) {
	data, err := e.fetchArticleContent(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return e.Run(data, pageURL)
}

func (e *ContentExtractor) Run(data []byte, pageURL string) (*ExtractedContent, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	content := CleanContent(article.Content)
	if content == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"url", pageURL,
		"title", article.Title,
		"content_length", len(content))

	return &ExtractedContent{
		Content:  content,
		ImageURL: strings.TrimSpace(article.Image),
	}, nil
}

func (e *ContentExtractor) fetchArticleContent(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
