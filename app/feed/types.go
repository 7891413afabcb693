package feed

import (
	"errors"
	"fmt"
	"time"
)

// RawItem is one entry of a fetched document with the dialect-specific
// fields that the normalizer knows how to resolve. Empty strings mean absent.
type RawItem struct {
	Title string
	Link  string
	GUID  string

	Summary     string // pre-stripped short form (iTunes subtitle/summary)
	Description string
	Content     string // content:encoded or Atom content

	Enclosures      []Enclosure
	MediaContentURL string

	PubDate string // publish date as written in the document
	ISODate string // RFC 3339 form of the parsed publish or update date

	Creator string // dc:creator
	Author  string
}

type Enclosure struct {
	URL    string
	Type   string
	Length string
}

// Article is a normalized item before it is bound to a feed.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	Author      string
	PublishedAt time.Time
}

type FetchErrorKind string

const (
	FetchErrorTimeout   FetchErrorKind = "timeout"
	FetchErrorRedirects FetchErrorKind = "too many redirects"
	FetchErrorHTTP      FetchErrorKind = "http"
	FetchErrorNetwork   FetchErrorKind = "network"
	FetchErrorParse     FetchErrorKind = "parse"
)

var ErrTooManyRedirects = errors.New("stopped after too many redirects")

// FetchError is a feed-level failure: the whole document could not be obtained or read.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorHTTP && e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
