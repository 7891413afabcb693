package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxRedirects = 5
	DefaultMaxItems     = 100
	DefaultUserAgent    = "NewsHub RSS Parser 1.0"

	maxDocumentSize = 10 << 20
)

type FetcherOptions struct {
	Timeout      time.Duration
	MaxRedirects int // zero means DefaultMaxRedirects, negative disables redirects
	MaxItems     int
	UserAgent    string
}

// Fetcher downloads and parses one feed document per call. It keeps no
// per-feed state, so a single instance is shared by all workers.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	timeout   time.Duration
	maxItems  int
	userAgent string
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:    NewHTTPClient(opts.MaxRedirects),
		parser:    gofeed.NewParser(),
		timeout:   opts.Timeout,
		maxItems:  opts.MaxItems,
		userAgent: opts.UserAgent,
	}
}

// NewHTTPClient returns a client that gives up after maxRedirects hops.
// Zero selects DefaultMaxRedirects and a negative value follows none.
func NewHTTPClient(maxRedirects int) *http.Client {
	if maxRedirects == 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// Run fetches url and returns at most MaxItems raw items in document order.
// A well-formed document without items yields an empty slice and no error.
func (f *Fetcher) Run(ctx context.Context, url string) ([]RawItem, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorParse, URL: url, Err: err}
	}

	items := parsed.Items
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	rawItems := make([]RawItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rawItems = append(rawItems, toRawItem(item))
	}

	return rawItems, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorNetwork, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       FetchErrorHTTP,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, classifyTransportError(url, err)
	}

	return data, nil
}

func classifyTransportError(url string, err error) *FetchError {
	if errors.Is(err, ErrTooManyRedirects) {
		return &FetchError{Kind: FetchErrorRedirects, URL: url, Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: FetchErrorTimeout, URL: url, Err: err}
	}

	return &FetchError{Kind: FetchErrorNetwork, URL: url, Err: err}
}

func toRawItem(item *gofeed.Item) RawItem {
	raw := RawItem{
		Title:           item.Title,
		Link:            item.Link,
		GUID:            item.GUID,
		Description:     item.Description,
		Content:         item.Content,
		PubDate:         item.Published,
		MediaContentURL: mediaContentURL(item.Extensions),
	}

	if raw.Link == "" && len(item.Links) > 0 {
		raw.Link = item.Links[0]
	}

	if item.ITunesExt != nil {
		raw.Summary = firstNonEmpty(item.ITunesExt.Subtitle, item.ITunesExt.Summary)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		raw.Enclosures = append(raw.Enclosures, Enclosure{
			URL:    enclosure.URL,
			Type:   enclosure.Type,
			Length: enclosure.Length,
		})
	}

	switch {
	case item.PublishedParsed != nil:
		raw.ISODate = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		raw.ISODate = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		raw.Creator = item.DublinCoreExt.Creator[0]
	}

	raw.Author = personName(item.Author)
	if raw.Author == "" {
		for _, author := range item.Authors {
			if name := personName(author); name != "" {
				raw.Author = name
				break
			}
		}
	}

	return raw
}

// mediaContentURL returns the url attribute of the first media:content
// element, looking inside media:group when the item has no direct one.
func mediaContentURL(extensions ext.Extensions) string {
	media, ok := extensions["media"]
	if !ok {
		return ""
	}

	for _, content := range media["content"] {
		if url := strings.TrimSpace(content.Attrs["url"]); url != "" {
			return url
		}
	}

	for _, group := range media["group"] {
		for _, content := range group.Children["content"] {
			if url := strings.TrimSpace(content.Attrs["url"]); url != "" {
				return url
			}
		}
	}

	return ""
}

func personName(person *gofeed.Person) string {
	if person == nil {
		return ""
	}
	return firstNonEmpty(person.Name, person.Email)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
