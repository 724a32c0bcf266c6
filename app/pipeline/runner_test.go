package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/scout"
	"github.com/scoutd/scoutd/app/source"
)

type fakeStore struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	topics []database.Topic
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]time.Time)}
}

func (s *fakeStore) seenKey(platform, postID string) string {
	return platform + "|" + postID
}

func (s *fakeStore) IsSeen(platform, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[s.seenKey(platform, postID)]
	return ok, nil
}

func (s *fakeStore) MarkSeen(platform, postID, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.seenKey(platform, postID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = time.Now()
	return true, nil
}

func (s *fakeStore) CountSince(platform string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key, createdAt := range s.seen {
		if strings.HasPrefix(key, platform+"|") && createdAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) SaveTopic(postKey, url string, topic database.NewTopic) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.seenKey(topic.Platform, postKey)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = time.Now()
	s.topics = append(s.topics, database.Topic{
		ID:             int64(len(s.topics) + 1),
		Platform:       topic.Platform,
		PostKey:        postKey,
		Title:          topic.Title,
		SourceURL:      topic.SourceURL,
		RelevanceScore: topic.RelevanceScore,
		Category:       topic.Category,
		IsHighValue:    topic.IsHighValue,
		Content:        topic.Content,
	})
	return true, nil
}

func (s *fakeStore) GetTopics(filter database.TopicFilter) ([]database.Topic, error) {
	return s.topics, nil
}

func (s *fakeStore) GetTopicCount(platform string) (int, error) {
	return len(s.topics), nil
}

func (s *fakeStore) GetPlatformStats(todayStart time.Time) ([]database.PlatformStat, error) {
	return nil, nil
}

func (s *fakeStore) MarkProcessed(topicID int64) error { return nil }

func (s *fakeStore) GetTopicsForExtraction(platform string, limit int) ([]database.TopicForExtraction, error) {
	return nil, nil
}

func (s *fakeStore) UpdateExtractedContentAndStatus(topicID int64, content string, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}

func (s *fakeStore) UpdateExtractionStatus(topicID int64, status string, errorMsg string) error {
	return nil
}

type fakeScoutRepo struct {
	bookkeepingCalls int
}

func (r *fakeScoutRepo) GetScout(name string) (*database.Scout, error) { return nil, nil }
func (r *fakeScoutRepo) GetScouts() ([]database.Scout, error)         { return nil, nil }
func (r *fakeScoutRepo) GetScoutCount() (int, error)                  { return 0, nil }
func (r *fakeScoutRepo) UpsertScout(name, platform string, enabled bool) error {
	return nil
}
func (r *fakeScoutRepo) UpdateRunBookkeeping(name string, lastRun, nextRun time.Time) error {
	r.bookkeepingCalls++
	return nil
}

type fakeDispatcher struct {
	calls int
	items []scout.ScoredItem
}

func (d *fakeDispatcher) Run(ctx context.Context, cfg *scout.Config, items []scout.ScoredItem) bool {
	d.calls++
	d.items = items
	return true
}

// hnServer serves Algolia-shaped responses, one hit per configured title.
func hnServer(t *testing.T, hitsByQuery map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		titles, ok := hitsByQuery[query]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		body := `{"hits":[`
		for i, title := range titles {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"objectID":"%s-%d","title":"%s","points":10}`, query, i, title)
		}
		body += `]}`

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func runnerConfig(endpoint string) *scout.Config {
	return &scout.Config{
		Name:      "hn-test",
		Platform:  "hackernews",
		KeyPrefix: "hackernews",
		Adapter:   scout.AdapterHackerNews,
		Endpoint:  endpoint,
		Queries:   []string{"crm"},
		Settings: scout.Settings{
			Enabled:          true,
			Timeout:          5,
			MaxItems:         20,
			DailyCap:         10,
			PersistThreshold: 30,
			AlertThreshold:   60,
			AlertLimit:       5,
			RefreshInterval:  3600,
		},
		Scoring: scout.Scoring{
			DefaultScore: 15,
			Categories: []scout.CategoryRule{
				{Name: "high_intent", Weight: 80, Patterns: []string{"looking for"}},
				{Name: "problem_aware", Weight: 45, Patterns: []string{"struggling"}},
			},
		},
	}
}

func newTestRunner(store *fakeStore, scoutRepo *fakeScoutRepo, dispatcher Dispatcher) *Runner {
	return NewRunner(store, store, scoutRepo, dispatcher, nil,
		&http.Client{Timeout: 5 * time.Second}, source.Options{UserAgent: "scoutd-test/1.0"})
}

func TestRunnerPersistsRelevantItems(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm": {"Looking for a CRM", "Unrelated weekend project"},
	})
	defer server.Close()

	store := newFakeStore()
	scoutRepo := &fakeScoutRepo{}
	runner := newTestRunner(store, scoutRepo, nil)

	stats, err := runner.Run(context.Background(), runnerConfig(server.URL), nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.ItemsFetched != 2 {
		t.Errorf("Expected 2 items fetched, got %d", stats.ItemsFetched)
	}
	// "Unrelated weekend project" scores the default 15, below the
	// persist threshold of 30.
	if stats.RelevantItems != 1 {
		t.Errorf("Expected 1 relevant item, got %d", stats.RelevantItems)
	}
	if stats.NewItems != 1 {
		t.Errorf("Expected 1 new item, got %d", stats.NewItems)
	}
	if len(store.topics) != 1 {
		t.Fatalf("Expected 1 persisted topic, got %d", len(store.topics))
	}

	topic := store.topics[0]
	if topic.Category != "high_intent" {
		t.Errorf("Expected category 'high_intent', got '%s'", topic.Category)
	}
	if topic.RelevanceScore != 0.8 {
		t.Errorf("Expected normalized score 0.8, got %v", topic.RelevanceScore)
	}
	if topic.PostKey != "hackernews_crm-0" {
		t.Errorf("Expected post key 'hackernews_crm-0', got '%s'", topic.PostKey)
	}
	if scoutRepo.bookkeepingCalls != 1 {
		t.Errorf("Expected 1 bookkeeping update, got %d", scoutRepo.bookkeepingCalls)
	}
}

func TestRunnerSecondRunIsIdempotent(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm": {"Looking for a CRM"},
	})
	defer server.Close()

	store := newFakeStore()
	runner := newTestRunner(store, &fakeScoutRepo{}, nil)
	cfg := runnerConfig(server.URL)

	first, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.NewItems != 1 {
		t.Fatalf("Expected 1 new item on first run, got %d", first.NewItems)
	}

	second, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if second.NewItems != 0 {
		t.Errorf("Expected 0 new items on second run, got %d", second.NewItems)
	}
	if second.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate on second run, got %d", second.Duplicates)
	}
	if len(store.topics) != 1 {
		t.Errorf("Expected 1 persisted topic after both runs, got %d", len(store.topics))
	}
}

func TestRunnerHonorsDailyCap(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm": {
			"Looking for a CRM one",
			"Looking for a CRM two",
			"Looking for a CRM three",
			"Looking for a CRM four",
		},
	})
	defer server.Close()

	store := newFakeStore()
	runner := newTestRunner(store, &fakeScoutRepo{}, nil)
	cfg := runnerConfig(server.URL)
	cfg.Settings.DailyCap = 2

	stats, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.NewItems != 2 {
		t.Errorf("Expected 2 new items under cap, got %d", stats.NewItems)
	}
	if stats.CapRemaining != 0 {
		t.Errorf("Expected 0 cap remaining, got %d", stats.CapRemaining)
	}
	if len(store.topics) != 2 {
		t.Errorf("Expected 2 persisted topics, got %d", len(store.topics))
	}
}

func TestRunnerSkipsRunWhenCapExhausted(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm": {"Looking for a CRM"},
	})
	defer server.Close()

	store := newFakeStore()
	// Pre-fill today's dedup set up to the cap.
	store.MarkSeen("hackernews", "old-1", "https://example.com/1")
	store.MarkSeen("hackernews", "old-2", "https://example.com/2")

	runner := newTestRunner(store, &fakeScoutRepo{}, nil)
	cfg := runnerConfig(server.URL)
	cfg.Settings.DailyCap = 2

	stats, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.FeedsChecked != 0 {
		t.Errorf("Expected no feeds checked on capped run, got %d", stats.FeedsChecked)
	}
	if stats.NewItems != 0 {
		t.Errorf("Expected 0 new items on capped run, got %d", stats.NewItems)
	}
	if stats.CapRemaining != 0 {
		t.Errorf("Expected 0 cap remaining, got %d", stats.CapRemaining)
	}
}

func TestRunnerIsolatesQueryFailures(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm":   {"Looking for a CRM"},
		"sales": {"Struggling with sales ops"},
		// "broken" is absent: the server responds 500 for it.
	})
	defer server.Close()

	store := newFakeStore()
	runner := newTestRunner(store, &fakeScoutRepo{}, nil)
	cfg := runnerConfig(server.URL)
	cfg.Queries = []string{"crm", "broken", "sales"}

	stats, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.FeedsChecked != 3 {
		t.Errorf("Expected 3 feeds checked, got %d", stats.FeedsChecked)
	}
	if stats.FeedErrors != 1 {
		t.Errorf("Expected 1 feed error, got %d", stats.FeedErrors)
	}
	if stats.NewItems != 2 {
		t.Errorf("Expected items from healthy queries to be persisted, got %d new", stats.NewItems)
	}
}

func TestRunnerDispatchesAlerts(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm": {"Looking for a CRM", "Struggling with data entry"},
	})
	defer server.Close()

	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	runner := newTestRunner(store, &fakeScoutRepo{}, dispatcher)

	stats, err := runner.Run(context.Background(), runnerConfig(server.URL), nil)
	if err != nil {
		t.Fatal(err)
	}

	if dispatcher.calls != 1 {
		t.Fatalf("Expected 1 dispatcher call, got %d", dispatcher.calls)
	}
	// Both items persist (80 and 45), only the 80 clears the alert
	// threshold of 60.
	if len(dispatcher.items) != 2 {
		t.Errorf("Expected dispatcher to receive all 2 candidates, got %d", len(dispatcher.items))
	}
	if stats.AlertsSent != 1 {
		t.Errorf("Expected 1 alert sent, got %d", stats.AlertsSent)
	}
}

func TestRunnerQueryOverride(t *testing.T) {
	server := hnServer(t, map[string][]string{
		"crm":      {"Looking for a CRM"},
		"override": {"Looking for an override"},
	})
	defer server.Close()

	store := newFakeStore()
	runner := newTestRunner(store, &fakeScoutRepo{}, nil)

	stats, err := runner.Run(context.Background(), runnerConfig(server.URL),
		&Override{Queries: []string{"override"}})
	if err != nil {
		t.Fatal(err)
	}

	if stats.FeedsChecked != 1 {
		t.Errorf("Expected 1 feed checked with override, got %d", stats.FeedsChecked)
	}
	if len(store.topics) != 1 {
		t.Fatalf("Expected 1 persisted topic, got %d", len(store.topics))
	}
	if store.topics[0].PostKey != "hackernews_override-0" {
		t.Errorf("Expected topic from override query, got '%s'", store.topics[0].PostKey)
	}
}
