package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const topicsSubject = "scoutd.topics.created"

// TopicEvent is the JSON payload published for every persisted topic.
// Downstream consumers (the approval dashboard lives outside this
// service) subscribe to the subject instead of polling the database.
type TopicEvent struct {
	Platform       string    `json:"platform"`
	PostKey        string    `json:"postKey"`
	Title          string    `json:"title"`
	SourceURL      string    `json:"sourceUrl"`
	RelevanceScore float64   `json:"relevanceScore"`
	Category       string    `json:"category"`
	IsHighValue    bool      `json:"isHighValue"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Publisher emits topic events to NATS. A nil Publisher is a no-op, so
// callers never need to branch on whether NATS is configured.
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(natsURL string) (*Publisher, error) {
	if natsURL == "" {
		return nil, nil
	}

	nc, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{nc: nc}, nil
}

// PublishTopic publishes a topic event. Failures are logged, never
// fatal: the event stream is a side channel, not a data-integrity
// concern.
func (p *Publisher) PublishTopic(event TopicEvent) {
	if p == nil || p.nc == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode topic event", "platform", event.Platform, "error", err)
		return
	}

	if err := p.nc.Publish(topicsSubject, data); err != nil {
		slog.Error("Failed to publish topic event", "platform", event.Platform, "error", err)
		return
	}

	slog.Debug("Topic event published", "subject", topicsSubject, "platform", event.Platform)
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
}
