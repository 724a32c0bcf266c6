package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/scoutd/scoutd/app/scout"
)

// SearchAdapter queries a connected third-party account search API that
// requires a bearer API key plus an account identifier. The query is a
// keyword phrase.
type SearchAdapter struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxItems  int
	endpoint  string
	apiKey    string
	accountID string
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	Metrics     struct {
		Likes    int `json:"likes"`
		Comments int `json:"comments"`
		Shares   int `json:"shares"`
	} `json:"metrics"`
}

func NewSearchAdapter(client *http.Client, userAgent string, settings scout.Settings,
	endpoint, apiKey, accountID string) *SearchAdapter {
	return &SearchAdapter{
		client:    client,
		userAgent: userAgent,
		timeout:   settings.GetTimeout(),
		maxItems:  settings.MaxItems,
		endpoint:  endpoint,
		apiKey:    apiKey,
		accountID: accountID,
	}
}

func (a *SearchAdapter) Fetch(ctx context.Context, query string) ([]scout.RawItem, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(a.maxItems))

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if a.accountID != "" {
		req.Header.Set("X-Account-ID", a.accountID)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response searchResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	items := make([]scout.RawItem, 0, len(response.Results))
	for _, result := range response.Results {
		if result.Title == "" && result.Snippet == "" {
			continue
		}

		items = append(items, scout.RawItem{
			ExternalID:  result.ID,
			Title:       result.Title,
			Body:        result.Snippet,
			URL:         result.URL,
			Author:      result.Author,
			PublishedAt: parseTime(result.PublishedAt),
			Engagement: scout.Engagement{
				Likes:    result.Metrics.Likes,
				Comments: result.Metrics.Comments,
				Shares:   result.Metrics.Shares,
			},
		})
	}

	return items, nil
}
