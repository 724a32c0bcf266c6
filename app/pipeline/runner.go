package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scoutd/scoutd/app/alert"
	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/metrics"
	"github.com/scoutd/scoutd/app/publish"
	"github.com/scoutd/scoutd/app/scout"
	"github.com/scoutd/scoutd/app/source"
)

const (
	extractionPending = "pending"
	extractionSkipped = "skipped"
)

// Dispatcher is satisfied by alert.Dispatcher.
type Dispatcher interface {
	Run(ctx context.Context, cfg *scout.Config, items []scout.ScoredItem) bool
}

// Override narrows a run to a subset of the configured queries, e.g.
// from a manual trigger body.
type Override struct {
	Queries []string `json:"queries"`
	Feeds   []string `json:"feeds"`
}

// Runner drives one scout invocation through the full pipeline: cap
// gate, fetch, score, dedup, persist, alert. It carries no state
// between invocations; everything durable lives in the repositories.
type Runner struct {
	seenRepo   database.SeenRepository
	topicRepo  database.TopicRepository
	scoutRepo  database.ScoutRepository
	dispatcher Dispatcher
	publisher  *publish.Publisher
	httpClient *http.Client
	sourceOpts source.Options
}

func NewRunner(seenRepo database.SeenRepository, topicRepo database.TopicRepository,
	scoutRepo database.ScoutRepository, dispatcher Dispatcher, publisher *publish.Publisher,
	httpClient *http.Client, sourceOpts source.Options) *Runner {
	return &Runner{
		seenRepo:   seenRepo,
		topicRepo:  topicRepo,
		scoutRepo:  scoutRepo,
		dispatcher: dispatcher,
		publisher:  publisher,
		httpClient: httpClient,
		sourceOpts: sourceOpts,
	}
}

// Run executes one scout invocation. Per-query and per-item failures
// are isolated: the run always reaches the end and returns a stats
// summary. A non-nil error means the run could not start at all.
func (r *Runner) Run(ctx context.Context, cfg *scout.Config, override *Override) (*scout.Stats, error) {
	start := time.Now()
	stats := &scout.Stats{Platform: cfg.Platform}

	remaining, err := r.remainingCapacity(cfg)
	if err != nil {
		metrics.ScoutRunsTotal.WithLabelValues(cfg.Platform, "error").Inc()
		return nil, err
	}
	stats.CapRemaining = remaining

	if remaining <= 0 {
		slog.Info("Daily cap exhausted, skipping run", "platform", cfg.Platform, "cap", cfg.Settings.DailyCap)
		r.updateBookkeeping(cfg)
		metrics.ScoutRunsTotal.WithLabelValues(cfg.Platform, "capped").Inc()
		return stats, nil
	}

	adapter, err := source.New(cfg, r.httpClient, r.sourceOpts)
	if err != nil {
		metrics.ScoutRunsTotal.WithLabelValues(cfg.Platform, "error").Inc()
		return nil, fmt.Errorf("failed to build adapter: %w", err)
	}

	scorer, err := scout.NewScorer(cfg.Scoring)
	if err != nil {
		metrics.ScoutRunsTotal.WithLabelValues(cfg.Platform, "error").Inc()
		return nil, fmt.Errorf("failed to build scorer: %w", err)
	}

	queries := runQueries(cfg, override)

	var candidates []scout.ScoredItem

	for _, query := range queries {
		if remaining <= 0 {
			break
		}

		stats.FeedsChecked++

		items, err := adapter.Fetch(ctx, query)
		if err != nil {
			stats.FeedErrors++
			metrics.FetchErrorsTotal.WithLabelValues(cfg.Platform).Inc()
			slog.Warn("Query fetch failed, continuing run", "platform", cfg.Platform, "query", query, "error", err)
			continue
		}

		for _, item := range items {
			if remaining <= 0 {
				break
			}

			stats.ItemsFetched++
			metrics.ItemsFetchedTotal.WithLabelValues(cfg.Platform).Inc()

			scored := scorer.Run(item)
			if scored.Score < cfg.Settings.PersistThreshold {
				continue
			}
			stats.RelevantItems++

			postKey := scout.ItemKey(cfg.KeyPrefix, item.ExternalID, item.URL)

			// Cheap skip on re-polls; correctness rests on the
			// constrained insert inside SaveTopic.
			if seen, err := r.seenRepo.IsSeen(cfg.Platform, postKey); err == nil && seen {
				stats.Duplicates++
				metrics.DuplicatesSkippedTotal.WithLabelValues(cfg.Platform).Inc()
				continue
			}

			newTopic, err := buildTopic(cfg, scored)
			if err != nil {
				slog.Error("Failed to build topic payload", "platform", cfg.Platform, "url", item.URL, "error", err)
				continue
			}

			inserted, err := r.topicRepo.SaveTopic(postKey, item.URL, newTopic)
			if err != nil {
				slog.Error("Failed to persist topic", "platform", cfg.Platform, "post_key", postKey, "error", err)
				continue
			}
			if !inserted {
				stats.Duplicates++
				metrics.DuplicatesSkippedTotal.WithLabelValues(cfg.Platform).Inc()
				continue
			}

			remaining--
			stats.NewItems++
			metrics.TopicsPersistedTotal.WithLabelValues(cfg.Platform).Inc()

			r.publisher.PublishTopic(publish.TopicEvent{
				Platform:       cfg.Platform,
				PostKey:        postKey,
				Title:          scored.Title,
				SourceURL:      scored.URL,
				RelevanceScore: newTopic.RelevanceScore,
				Category:       scored.Category,
				IsHighValue:    scored.IsHighValue,
				CreatedAt:      time.Now().UTC(),
			})

			candidates = append(candidates, scored)
		}
	}

	stats.CapRemaining = remaining

	if r.dispatcher != nil && len(candidates) > 0 {
		if r.dispatcher.Run(ctx, cfg, candidates) {
			stats.AlertsSent = len(alert.SelectTop(candidates,
				cfg.Settings.AlertThreshold, cfg.Settings.AlertLimit))
			metrics.AlertsSentTotal.WithLabelValues(cfg.Platform).Inc()
		}
	}

	r.updateBookkeeping(cfg)

	duration := time.Since(start)
	metrics.ScoutRunsTotal.WithLabelValues(cfg.Platform, "ok").Inc()
	metrics.ScoutRunDuration.WithLabelValues(cfg.Platform).Observe(duration.Seconds())

	slog.Info("Scout run completed",
		"platform", cfg.Platform,
		"duration", duration,
		"feeds_checked", stats.FeedsChecked,
		"feed_errors", stats.FeedErrors,
		"items_fetched", stats.ItemsFetched,
		"relevant", stats.RelevantItems,
		"duplicates", stats.Duplicates,
		"new", stats.NewItems,
		"alerts_sent", stats.AlertsSent,
		"cap_remaining", stats.CapRemaining)

	return stats, nil
}

// remainingCapacity derives today's remaining capacity from the dedup
// set: dailyCap minus seen records since local midnight.
func (r *Runner) remainingCapacity(cfg *scout.Config) (int, error) {
	now := time.Now().In(time.Local)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	seenToday, err := r.seenRepo.CountSince(cfg.Platform, todayStart)
	if err != nil {
		return 0, fmt.Errorf("failed to count seen records: %w", err)
	}

	remaining := cfg.Settings.DailyCap - seenToday
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (r *Runner) updateBookkeeping(cfg *scout.Config) {
	if r.scoutRepo == nil {
		return
	}

	now := time.Now().UTC()
	next := now.Add(cfg.Settings.GetRefreshInterval())

	if err := r.scoutRepo.UpdateRunBookkeeping(cfg.Name, now, next); err != nil {
		slog.Warn("Failed to update scout bookkeeping", "scout", cfg.Name, "error", err)
	}
}

func runQueries(cfg *scout.Config, override *Override) []string {
	if override != nil {
		switch cfg.Adapter {
		case scout.AdapterRSS, scout.AdapterHTMLJSON:
			if len(override.Feeds) > 0 {
				return override.Feeds
			}
		default:
			if len(override.Queries) > 0 {
				return override.Queries
			}
		}
	}

	return cfg.RunQueries()
}

// topicContent is the opaque structured payload stored with a topic.
type topicContent struct {
	Title           string           `json:"title"`
	Body            string           `json:"body,omitempty"`
	URL             string           `json:"url,omitempty"`
	Author          string           `json:"author,omitempty"`
	PublishedAt     *time.Time       `json:"publishedAt,omitempty"`
	Engagement      scout.Engagement `json:"engagement"`
	Score           int              `json:"score"`
	Category        string           `json:"category"`
	MatchedKeywords []string         `json:"matchedKeywords,omitempty"`
	IsHighValue     bool             `json:"isHighValue,omitempty"`
}

func buildTopic(cfg *scout.Config, scored scout.ScoredItem) (database.NewTopic, error) {
	content, err := json.Marshal(topicContent{
		Title:           scored.Title,
		Body:            scored.Body,
		URL:             scored.URL,
		Author:          scored.Author,
		PublishedAt:     scored.PublishedAt,
		Engagement:      scored.Engagement,
		Score:           scored.Score,
		Category:        scored.Category,
		MatchedKeywords: scored.MatchedKeywords,
		IsHighValue:     scored.IsHighValue,
	})
	if err != nil {
		return database.NewTopic{}, fmt.Errorf("failed to encode topic content: %w", err)
	}

	extractionStatus := extractionSkipped
	if cfg.Settings.ExtractContent {
		extractionStatus = extractionPending
	}

	return database.NewTopic{
		Platform:         cfg.Platform,
		Title:            scored.Title,
		Source:           cfg.Platform,
		SourceURL:        scored.URL,
		RelevanceScore:   float64(scored.Score) / 100.0,
		Category:         scored.Category,
		MatchedKeywords:  scored.MatchedKeywords,
		IsHighValue:      scored.IsHighValue,
		Content:          string(content),
		ExtractionStatus: extractionStatus,
	}, nil
}
