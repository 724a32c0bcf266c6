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

const defaultDevToEndpoint = "https://dev.to/api/articles"

// DevToAdapter queries the DEV.to articles API. The query is a tag.
type DevToAdapter struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxItems  int
	endpoint  string
}

type devToArticle struct {
	ID                     int      `json:"id"`
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	URL                    string   `json:"url"`
	PublishedAt            string   `json:"published_at"`
	PositiveReactionsCount int      `json:"positive_reactions_count"`
	CommentsCount          int      `json:"comments_count"`
	TagList                []string `json:"tag_list"`
	User                   struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

func NewDevToAdapter(client *http.Client, userAgent string, settings scout.Settings, endpoint string) *DevToAdapter {
	return &DevToAdapter{
		client:    client,
		userAgent: userAgent,
		timeout:   settings.GetTimeout(),
		maxItems:  settings.MaxItems,
		endpoint:  cmp.Or(endpoint, defaultDevToEndpoint),
	}
}

func (a *DevToAdapter) Fetch(ctx context.Context, tag string) ([]scout.RawItem, error) {
	params := url.Values{}
	params.Set("tag", tag)
	params.Set("per_page", strconv.Itoa(a.maxItems))

	data, err := fetchBody(ctx, a.client, a.endpoint+"?"+params.Encode(), a.userAgent,
		"application/json", a.timeout)
	if err != nil {
		return nil, err
	}

	var articles []devToArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse articles response: %w", err)
	}

	items := make([]scout.RawItem, 0, len(articles))
	for _, article := range articles {
		if article.ID == 0 || article.Title == "" {
			continue
		}

		items = append(items, scout.RawItem{
			ExternalID:  strconv.Itoa(article.ID),
			Title:       article.Title,
			Body:        article.Description,
			URL:         article.URL,
			Author:      cmp.Or(article.User.Name, article.User.Username),
			PublishedAt: parseTime(article.PublishedAt),
			Engagement: scout.Engagement{
				Likes:    article.PositiveReactionsCount,
				Comments: article.CommentsCount,
			},
		})
	}

	return items, nil
}
