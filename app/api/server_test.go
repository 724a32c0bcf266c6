package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/scout"
)

type stubScoutRepo struct{}

func (s *stubScoutRepo) GetScout(name string) (*database.Scout, error) { return nil, nil }
func (s *stubScoutRepo) GetScouts() ([]database.Scout, error)         { return nil, nil }
func (s *stubScoutRepo) GetScoutCount() (int, error)                  { return 2, nil }
func (s *stubScoutRepo) UpsertScout(name, platform string, enabled bool) error {
	return nil
}
func (s *stubScoutRepo) UpdateRunBookkeeping(name string, lastRun, nextRun time.Time) error {
	return nil
}

type stubTopicRepo struct{}

func (s *stubTopicRepo) SaveTopic(postKey, url string, topic database.NewTopic) (bool, error) {
	return false, nil
}
func (s *stubTopicRepo) GetTopics(filter database.TopicFilter) ([]database.Topic, error) {
	return nil, nil
}
func (s *stubTopicRepo) GetTopicCount(platform string) (int, error) { return 0, nil }
func (s *stubTopicRepo) GetPlatformStats(todayStart time.Time) ([]database.PlatformStat, error) {
	return []database.PlatformStat{
		{Platform: "hackernews", TopicCount: 5, SeenToday: 3, Unprocessed: 2},
	}, nil
}
func (s *stubTopicRepo) MarkProcessed(topicID int64) error { return nil }
func (s *stubTopicRepo) GetTopicsForExtraction(platform string, limit int) ([]database.TopicForExtraction, error) {
	return nil, nil
}
func (s *stubTopicRepo) UpdateExtractedContentAndStatus(topicID int64, content string, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}
func (s *stubTopicRepo) UpdateExtractionStatus(topicID int64, status string, errorMsg string) error {
	return nil
}

func newTestServer(apiAccessKey string) http.Handler {
	handler := NewHandler(scout.NewConfigCache("/nonexistent"), &stubScoutRepo{},
		&stubTopicRepo{}, nil, nil)
	return NewServer(handler, apiAccessKey)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer("")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	if body["scouts"] != float64(2) {
		t.Errorf("Expected 2 scouts, got %v", body["scouts"])
	}
	if body["loaded_configurations"] != float64(0) {
		t.Errorf("Expected 0 loaded configurations, got %v", body["loaded_configurations"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer("")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Platforms []map[string]interface{} `json:"platforms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	if len(body.Platforms) != 1 {
		t.Fatalf("Expected 1 platform entry, got %d", len(body.Platforms))
	}
	if body.Platforms[0]["platform"] != "hackernews" {
		t.Errorf("Expected platform 'hackernews', got %v", body.Platforms[0]["platform"])
	}
}

func TestAPIDisabledWithoutAccessKey(t *testing.T) {
	server := newTestServer("")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/scouts", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for disabled API, got %d", w.Code)
	}
}

func TestAPIAuthRequired(t *testing.T) {
	server := newTestServer("secret")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/scouts", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/scouts", nil)
	req.Header.Set("X-API-Key", "wrong")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
}

func TestAPIAuthAcceptsHeaderAndBearer(t *testing.T) {
	server := newTestServer("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/scouts", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with X-API-Key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/scouts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestTopicsEndpointValidation(t *testing.T) {
	server := newTestServer("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/topics?min_score=abc", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid min_score, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/topics?limit=0", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestRunScoutUnknownName(t *testing.T) {
	server := newTestServer("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/scouts/nope/run", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown scout, got %d", w.Code)
	}
}
