package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scoutd/scoutd/app/scout"
)

// Adapter fetches one upstream query and normalizes the response into
// raw items. A returned error is scoped to the query: the caller moves
// on to its next query rather than aborting the run. Single malformed
// entries are skipped inside the adapter, never surfaced as errors.
type Adapter interface {
	Fetch(ctx context.Context, query string) ([]scout.RawItem, error)
}

// Options carries process-level settings adapters need beyond the scout
// configuration.
type Options struct {
	UserAgent       string
	SearchAPIKey    string
	SearchAccountID string
}

// New constructs the adapter for a scout configuration. Adapters doing
// multiple queries per invocation are wrapped with a fixed inter-query
// delay to respect informal upstream rate limits; the delay belongs to
// the adapter, not the orchestrator.
func New(cfg *scout.Config, client *http.Client, opts Options) (Adapter, error) {
	var adapter Adapter

	switch cfg.Adapter {
	case scout.AdapterRSS:
		adapter = NewRSSAdapter(client, opts.UserAgent, cfg.Settings)
	case scout.AdapterHackerNews:
		adapter = NewHackerNewsAdapter(client, opts.UserAgent, cfg.Settings, cfg.Endpoint)
	case scout.AdapterDevTo:
		adapter = NewDevToAdapter(client, opts.UserAgent, cfg.Settings, cfg.Endpoint)
	case scout.AdapterHTMLJSON:
		adapter = NewHTMLJSONAdapter(client, opts.UserAgent, cfg.Settings)
	case scout.AdapterSearch:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("search adapter requires an endpoint")
		}
		if opts.SearchAPIKey == "" {
			return nil, fmt.Errorf("search adapter requires SEARCH_API_KEY")
		}
		adapter = NewSearchAdapter(client, opts.UserAgent, cfg.Settings, cfg.Endpoint,
			opts.SearchAPIKey, opts.SearchAccountID)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", cfg.Adapter)
	}

	return &throttled{adapter: adapter, delay: cfg.Settings.GetQueryDelay()}, nil
}

// throttled inserts a fixed delay between consecutive Fetch calls.
type throttled struct {
	adapter Adapter
	delay   time.Duration
	last    time.Time
}

func (t *throttled) Fetch(ctx context.Context, query string) ([]scout.RawItem, error) {
	if !t.last.IsZero() && t.delay > 0 {
		wait := t.delay - time.Since(t.last)
		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	t.last = time.Now()

	return t.adapter.Fetch(ctx, query)
}

// fetchBody performs one bounded upstream HTTP call. Timeouts apply per
// call, not per invocation.
func fetchBody(ctx context.Context, client *http.Client, url, userAgent, accept string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// parseTime tries the timestamp layouts seen across upstream sources.
// A nil result means the source did not provide a usable timestamp.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc
		}
	}

	return nil
}
