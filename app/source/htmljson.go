package source

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/scoutd/scoutd/app/scout"
)

// HTMLJSONAdapter is the scraping fallback for sites with no feed or
// API: it fetches an HTML page and reads the post list out of the
// embedded __NEXT_DATA__ JSON island. The query is the page URL.
type HTMLJSONAdapter struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxItems  int
}

type nextData struct {
	Props struct {
		PageProps struct {
			Posts []embeddedPost `json:"posts"`
		} `json:"pageProps"`
	} `json:"props"`
}

type embeddedPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Excerpt     string `json:"excerpt"`
	URL         string `json:"url"`
	Slug        string `json:"slug"`
	Author      string `json:"author"`
	PublishedAt string `json:"publishedAt"`
	Likes       int    `json:"likes"`
	Comments    int    `json:"comments"`
	Shares      int    `json:"shares"`
}

func NewHTMLJSONAdapter(client *http.Client, userAgent string, settings scout.Settings) *HTMLJSONAdapter {
	return &HTMLJSONAdapter{
		client:    client,
		userAgent: userAgent,
		timeout:   settings.GetTimeout(),
		maxItems:  settings.MaxItems,
	}
}

func (a *HTMLJSONAdapter) Fetch(ctx context.Context, pageURL string) ([]scout.RawItem, error) {
	data, err := fetchBody(ctx, a.client, pageURL, a.userAgent, "text/html", a.timeout)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("no embedded JSON data found in page")
	}

	var payload nextData
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse embedded JSON: %w", err)
	}

	base, _ := url.Parse(pageURL)

	items := make([]scout.RawItem, 0, len(payload.Props.PageProps.Posts))
	for _, post := range payload.Props.PageProps.Posts {
		if len(items) >= a.maxItems {
			break
		}
		if post.Title == "" {
			continue
		}

		items = append(items, scout.RawItem{
			ExternalID:  post.ID,
			Title:       post.Title,
			Body:        cmp.Or(post.Body, post.Excerpt),
			URL:         resolveLink(base, cmp.Or(post.URL, post.Slug)),
			Author:      post.Author,
			PublishedAt: parseTime(post.PublishedAt),
			Engagement: scout.Engagement{
				Likes:    post.Likes,
				Comments: post.Comments,
				Shares:   post.Shares,
			},
		})
	}

	return items, nil
}

func resolveLink(base *url.URL, link string) string {
	if link == "" || base == nil {
		return link
	}

	ref, err := url.Parse(link)
	if err != nil {
		return link
	}

	return base.ResolveReference(ref).String()
}
