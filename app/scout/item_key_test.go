package scout

import (
	"testing"
)

func TestItemKeyWithExternalID(t *testing.T) {
	key := ItemKey("hn", "38123456", "https://news.ycombinator.com/item?id=38123456")

	if key != "hn_38123456" {
		t.Errorf("Expected 'hn_38123456', got '%s'", key)
	}
}

func TestItemKeyHashFallback(t *testing.T) {
	key := ItemKey("blog", "", "https://example.com/posts/launch")

	if len(key) != 16 {
		t.Errorf("Expected 16-character hash key, got '%s' (%d chars)", key, len(key))
	}

	again := ItemKey("blog", "", "https://example.com/posts/launch")
	if key != again {
		t.Errorf("Expected deterministic key, got '%s' and '%s'", key, again)
	}
}

func TestItemKeyCanonicalization(t *testing.T) {
	base := ItemKey("blog", "", "https://example.com/posts/launch")

	variants := []string{
		"https://EXAMPLE.com/posts/launch",
		"https://example.com/posts/launch/",
		"https://example.com/posts/launch?utm_source=newsletter",
		"https://example.com/posts/launch#comments",
		"  https://example.com/posts/launch  ",
	}

	for _, variant := range variants {
		if got := ItemKey("blog", "", variant); got != base {
			t.Errorf("Expected '%s' to canonicalize to same key as base, got '%s' vs '%s'", variant, got, base)
		}
	}
}

func TestItemKeyDistinctURLs(t *testing.T) {
	a := ItemKey("blog", "", "https://example.com/posts/launch")
	b := ItemKey("blog", "", "https://example.com/posts/other")

	if a == b {
		t.Errorf("Expected distinct keys for distinct URLs, both were '%s'", a)
	}
}

func TestItemKeyUnparseableURL(t *testing.T) {
	// A string that fails URL parsing still yields a stable key.
	a := ItemKey("blog", "", "::not a url::")
	b := ItemKey("blog", "", "::not a url::")

	if a != b {
		t.Errorf("Expected stable key for unparseable URL, got '%s' and '%s'", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Expected 16-character key, got %d chars", len(a))
	}
}
