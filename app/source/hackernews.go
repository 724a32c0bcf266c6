package source

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/scoutd/scoutd/app/scout"
)

const defaultHackerNewsEndpoint = "https://hn.algolia.com/api/v1/search_by_date"

// HackerNewsAdapter queries the Algolia-backed Hacker News search API.
// The query is a keyword phrase.
type HackerNewsAdapter struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxItems  int
	endpoint  string
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryTitle  string `json:"story_title"`
	URL         string `json:"url"`
	StoryURL    string `json:"story_url"`
	Author      string `json:"author"`
	CreatedAt   string `json:"created_at"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
}

func NewHackerNewsAdapter(client *http.Client, userAgent string, settings scout.Settings, endpoint string) *HackerNewsAdapter {
	return &HackerNewsAdapter{
		client:    client,
		userAgent: userAgent,
		timeout:   settings.GetTimeout(),
		maxItems:  settings.MaxItems,
		endpoint:  cmp.Or(endpoint, defaultHackerNewsEndpoint),
	}
}

func (a *HackerNewsAdapter) Fetch(ctx context.Context, query string) ([]scout.RawItem, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "(story,comment)")
	params.Set("hitsPerPage", strconv.Itoa(a.maxItems))

	data, err := fetchBody(ctx, a.client, a.endpoint+"?"+params.Encode(), a.userAgent,
		"application/json", a.timeout)
	if err != nil {
		return nil, err
	}

	var response hnSearchResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	items := make([]scout.RawItem, 0, len(response.Hits))
	for _, hit := range response.Hits {
		if hit.ObjectID == "" {
			continue
		}

		title := cmp.Or(hit.Title, hit.StoryTitle)
		body := cmp.Or(hit.StoryText, hit.CommentText)
		if title == "" && body == "" {
			continue
		}

		link := cmp.Or(hit.URL, hit.StoryURL)
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		items = append(items, scout.RawItem{
			ExternalID:  hit.ObjectID,
			Title:       title,
			Body:        body,
			URL:         link,
			Author:      hit.Author,
			PublishedAt: parseTime(hit.CreatedAt),
			Engagement: scout.Engagement{
				Likes:    hit.Points,
				Comments: hit.NumComments,
			},
		})
	}

	return items, nil
}
