package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHackerNewsAdapterFetch(t *testing.T) {
	payload := `{
		"hits": [
			{
				"objectID": "38123456",
				"title": "Looking for a CRM that does not suck",
				"url": "https://example.com/post",
				"author": "pg",
				"created_at": "2026-08-01T12:00:00Z",
				"points": 120,
				"num_comments": 45
			},
			{
				"objectID": "38123457",
				"comment_text": "We switched away from Apollo.io last month",
				"author": "commenter"
			},
			{
				"objectID": "",
				"title": "No id, must be skipped"
			},
			{
				"objectID": "38123458"
			}
		]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "crm" {
			t.Errorf("Expected query param 'crm', got '%s'", got)
		}
		if got := r.URL.Query().Get("hitsPerPage"); got != "10" {
			t.Errorf("Expected hitsPerPage '10', got '%s'", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	adapter := NewHackerNewsAdapter(server.Client(), "scoutd-test/1.0", testSettings(), server.URL)

	items, err := adapter.Fetch(context.Background(), "crm")
	if err != nil {
		t.Fatal(err)
	}

	// Hits without an id or without any text are skipped.
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	story := items[0]
	if story.ExternalID != "38123456" {
		t.Errorf("Expected external ID '38123456', got '%s'", story.ExternalID)
	}
	if story.URL != "https://example.com/post" {
		t.Errorf("Expected story URL, got '%s'", story.URL)
	}
	if story.Engagement.Likes != 120 || story.Engagement.Comments != 45 {
		t.Errorf("Expected engagement 120/45, got %d/%d", story.Engagement.Likes, story.Engagement.Comments)
	}
	if story.PublishedAt == nil {
		t.Error("Expected published time to be set")
	}

	comment := items[1]
	if comment.URL != "https://news.ycombinator.com/item?id=38123457" {
		t.Errorf("Expected fallback item URL, got '%s'", comment.URL)
	}
	if comment.Body != "We switched away from Apollo.io last month" {
		t.Errorf("Expected comment text as body, got '%s'", comment.Body)
	}
}

func TestHackerNewsAdapterInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	adapter := NewHackerNewsAdapter(server.Client(), "scoutd-test/1.0", testSettings(), server.URL)

	if _, err := adapter.Fetch(context.Background(), "crm"); err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}
