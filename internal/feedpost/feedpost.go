// Package feedpost turns items of RSS and Atom feeds into webhook requests.
package feedpost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ErikKalkoken/hookpost/internal/markdown"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

var ErrNoItems = errors.New("feed has no items")

// Item is an item from a feed.
type Item struct {
	Description string
	FeedTitle   string
	Link        string
	Published   time.Time
	Title       string
}

// Poster fetches feeds.
type Poster struct {
	fp *gofeed.Parser
}

func New(client *http.Client) *Poster {
	fp := gofeed.NewParser()
	fp.Client = client
	return &Poster{fp: fp}
}

// LatestItem fetches a feed and returns its most recently published item.
// Items without publish date are only considered when no item has one.
func (p *Poster) LatestItem(ctx context.Context, feedURL string) (Item, error) {
	var it Item
	feed, err := p.fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return it, fmt.Errorf("failed to parse URL for feed %s: %w", feedURL, err)
	}
	if len(feed.Items) == 0 {
		return it, ErrNoItems
	}
	latest := feed.Items[0]
	for _, item := range feed.Items[1:] {
		if item.PublishedParsed == nil {
			continue
		}
		if latest.PublishedParsed == nil || item.PublishedParsed.After(*latest.PublishedParsed) {
			latest = item
		}
	}
	it = Item{
		FeedTitle: feed.Title,
		Link:      latest.Link,
		Title:     latest.Title,
	}
	it.Description = latest.Description
	if it.Description == "" {
		it.Description = latest.Content
	}
	if latest.PublishedParsed != nil {
		it.Published = latest.PublishedParsed.UTC()
	}
	return it, nil
}

// Request returns a copy of base which posts the item.
// New forum threads are named after the item title.
func Request(base webhook.Request, it Item) (webhook.Request, error) {
	description, err := markdown.Convert(it.Description)
	if err != nil {
		return base, fmt.Errorf("failed to parse description to markdown: %w", err)
	}
	parts := make([]string, 0, 3)
	title := it.Title
	if title == "" {
		title = it.FeedTitle
	}
	isNewThread := base.Kind() == webhook.KindForumThread && base.RepliedThreadID().IsZero()
	if isNewThread {
		base = base.WithThreadName(title)
	} else if title != "" {
		parts = append(parts, "**"+title+"**")
	}
	if description != "" {
		parts = append(parts, description)
	}
	if it.Link != "" {
		parts = append(parts, it.Link)
	}
	return base.WithContent(strings.Join(parts, "\n")), nil
}
