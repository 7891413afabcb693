package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultTitle         = "Untitled"
	MaxDescriptionLength = 500
	MaxContentLength     = 10000
)

var (
	scriptPattern    = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	stylePattern     = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	breakPattern     = regexp.MustCompile(`(?i)<br\b[^>]*>`)
	paragraphPattern = regexp.MustCompile(`(?i)</?p\b[^>]*>`)
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw items into articles. It does no I/O.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock is used where the fallback publish time must be predictable.
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

func (n *Normalizer) Run(item RawItem) Article {
	rawContent := firstNonEmpty(item.Content, item.Description)

	return Article{
		Title:       n.title(item),
		Description: n.description(item),
		Content:     CleanContent(rawContent),
		URL:         firstNonEmpty(item.Link, item.GUID),
		ImageURL:    n.imageURL(item, rawContent),
		Author:      firstNonEmpty(item.Creator, item.Author),
		PublishedAt: n.publishedAt(item),
	}
}

func (n *Normalizer) title(item RawItem) string {
	title := strings.TrimSpace(norm.NFC.String(item.Title))
	if title == "" {
		return DefaultTitle
	}
	return title
}

// description prefers the pre-stripped summary; otherwise the raw
// description loses its markup and is cut to MaxDescriptionLength runes.
func (n *Normalizer) description(item RawItem) string {
	if summary := strings.TrimSpace(item.Summary); summary != "" {
		return norm.NFC.String(summary)
	}

	if item.Description == "" {
		return ""
	}

	stripped := tagPattern.ReplaceAllString(item.Description, "")
	return strings.TrimSpace(truncateRunes(norm.NFC.String(stripped), MaxDescriptionLength))
}

// imageURL resolves in order: image enclosure, media:content, first <img src> in the markup.
func (n *Normalizer) imageURL(item RawItem, rawContent string) string {
	for _, enclosure := range item.Enclosures {
		url := strings.TrimSpace(enclosure.URL)
		if url != "" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(enclosure.Type)), "image/") {
			return url
		}
	}

	if item.MediaContentURL != "" {
		return item.MediaContentURL
	}

	if src := firstImageSource(rawContent); src != "" {
		return src
	}
	if item.Description != rawContent {
		return firstImageSource(item.Description)
	}

	return ""
}

func (n *Normalizer) publishedAt(item RawItem) time.Time {
	if pubDate := strings.TrimSpace(item.PubDate); pubDate != "" {
		if t, err := dateparse.ParseAny(pubDate); err == nil && !t.IsZero() {
			return t
		}
	}

	if isoDate := strings.TrimSpace(item.ISODate); isoDate != "" {
		if t, err := time.Parse(time.RFC3339, isoDate); err == nil && !t.IsZero() {
			return t
		}
	}

	return n.now()
}

// CleanContent reduces HTML to plain text: script and style elements are
// dropped with their bodies before any other tag is touched, line breaks
// and paragraph boundaries become newlines, remaining tags are stripped,
// whitespace runs collapse to one space and the result is capped at
// MaxContentLength runes.
func CleanContent(content string) string {
	if content == "" {
		return ""
	}

	content = scriptPattern.ReplaceAllString(content, "")
	content = stylePattern.ReplaceAllString(content, "")

	content = breakPattern.ReplaceAllString(content, "\n")
	content = paragraphPattern.ReplaceAllString(content, "\n")
	content = tagPattern.ReplaceAllString(content, " ")
	content = spacePattern.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)

	return truncateRunes(norm.NFC.String(content), MaxContentLength)
}

func firstImageSource(markup string) string {
	if !strings.Contains(strings.ToLower(markup), "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src = strings.TrimSpace(img.AttrOr("src", ""))
		return src == ""
	})

	return src
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}

	return s
}
