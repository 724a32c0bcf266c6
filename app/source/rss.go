package source

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/scoutd/scoutd/app/scout"
)

// RSSAdapter fetches RSS/Atom feeds. The query is the feed URL.
type RSSAdapter struct {
	client       *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
	maxItems     int
}

func NewRSSAdapter(client *http.Client, userAgent string, settings scout.Settings) *RSSAdapter {
	return &RSSAdapter{
		client:       client,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		timeout:      settings.GetTimeout(),
		maxItems:     settings.MaxItems,
	}
}

func (a *RSSAdapter) Fetch(ctx context.Context, feedURL string) ([]scout.RawItem, error) {
	data, err := fetchBody(ctx, a.client, feedURL, a.userAgent,
		"application/rss+xml, application/atom+xml, application/xml, text/xml", a.timeout)
	if err != nil {
		return nil, err
	}

	feed, err := a.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]scout.RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(items) >= a.maxItems {
			break
		}
		if item == nil || (item.Title == "" && item.Link == "") {
			continue
		}

		raw := scout.RawItem{
			Title: item.Title,
			Body:  cmp.Or(item.Description, item.Content),
			URL:   item.Link,
		}

		if item.PublishedParsed != nil {
			utc := item.PublishedParsed.UTC()
			raw.PublishedAt = &utc
		}

		if item.Author != nil {
			raw.Author = cmp.Or(item.Author.Name, item.Author.Email)
		}

		items = append(items, raw)
	}

	return items, nil
}
