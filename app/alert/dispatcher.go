package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/scoutd/scoutd/app/scout"
)

// Dispatcher posts one card message per run to the configured chat
// webhook. Delivery is a notification side effect: failures are logged
// and swallowed, never rolled back into persistence.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
}

func NewDispatcher(webhookURL string) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Run selects alert-eligible items, renders the card batch, and posts
// it. It reports whether the webhook accepted the payload.
func (d *Dispatcher) Run(ctx context.Context, cfg *scout.Config, items []scout.ScoredItem) bool {
	if d.webhookURL == "" {
		return false
	}

	top := SelectTop(items, cfg.Settings.AlertThreshold, cfg.Settings.AlertLimit)
	if len(top) == 0 {
		return false
	}

	message := buildMessage(cfg.Platform, top)

	payload, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to encode alert payload", "platform", cfg.Platform, "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		slog.Error("Failed to create alert request", "platform", cfg.Platform, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := d.client.Do(req)
	if err != nil {
		slog.Error("Failed to deliver alert", "platform", cfg.Platform, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Webhook rejected alert", "platform", cfg.Platform, "status", resp.Status)
		return false
	}

	slog.Info("Alert delivered", "platform", cfg.Platform, "items", len(top))

	return true
}

// SelectTop filters by the alert threshold, sorts by score descending,
// and keeps the top limit items.
func SelectTop(items []scout.ScoredItem, threshold, limit int) []scout.ScoredItem {
	eligible := make([]scout.ScoredItem, 0, len(items))
	for _, item := range items {
		if item.Score >= threshold {
			eligible = append(eligible, item)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score > eligible[j].Score
	})

	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}

	return eligible
}

func buildMessage(platform string, items []scout.ScoredItem) Message {
	card := Card{
		Header: Header{
			Title:    fmt.Sprintf("New topics: %s", platform),
			Subtitle: fmt.Sprintf("%d relevant items found", len(items)),
		},
	}

	for _, item := range items {
		section := Section{
			Widgets: []Widget{
				{KeyValue: &KeyValue{
					TopLabel:         "Title",
					Content:          item.Title,
					ContentMultiline: true,
				}},
				{KeyValue: &KeyValue{
					TopLabel: "Score",
					Content:  fmt.Sprintf("%d (%s)", item.Score, item.Category),
				}},
			},
		}

		if item.Author != "" {
			section.Widgets = append(section.Widgets, Widget{KeyValue: &KeyValue{
				TopLabel: "Author",
				Content:  item.Author,
			}})
		}

		if item.IsHighValue {
			section.Widgets = append(section.Widgets, Widget{KeyValue: &KeyValue{
				TopLabel: "Signal",
				Content:  "High value context",
			}})
		}

		if e := item.Engagement; e.Likes > 0 || e.Comments > 0 {
			section.Widgets = append(section.Widgets, Widget{KeyValue: &KeyValue{
				TopLabel: "Engagement",
				Content:  fmt.Sprintf("%d likes, %d comments", e.Likes, e.Comments),
			}})
		}

		if item.URL != "" {
			section.Widgets = append(section.Widgets, Widget{
				Buttons: []Button{{TextButton: TextButton{
					Text:    "OPEN",
					OnClick: OnClick{OpenLink: OpenLink{URL: item.URL}},
				}}},
			})
		}

		card.Sections = append(card.Sections, section)
	}

	return Message{Cards: []Card{card}}
}
