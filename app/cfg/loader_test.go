package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestCfgFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		ScoutsDir:         "./scouts",
		Port:              "8080",
		WorkerCount:       3,
		SchedulerInterval: 60,
		APIAccessKey:      "test-key",
		WebhookURL:        "https://chat.example.com/webhook",
		NatsURL:           "nats://localhost:4222",
		SearchAPIKey:      "search-key",
		SearchAccountID:   "acct-42",
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected db path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.ScoutsDir != "./scouts" {
		t.Errorf("Expected scouts dir './scouts', got '%s'", cfg.ScoutsDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("Expected worker count 3, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 60 {
		t.Errorf("Expected scheduler interval 60, got %d", cfg.SchedulerInterval)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.WebhookURL != "https://chat.example.com/webhook" {
		t.Errorf("Expected webhook URL, got '%s'", cfg.WebhookURL)
	}
	if cfg.NatsURL != "nats://localhost:4222" {
		t.Errorf("Expected NATS URL, got '%s'", cfg.NatsURL)
	}
	if cfg.SearchAPIKey != "search-key" {
		t.Errorf("Expected search API key 'search-key', got '%s'", cfg.SearchAPIKey)
	}
	if cfg.SearchAccountID != "acct-42" {
		t.Errorf("Expected search account 'acct-42', got '%s'", cfg.SearchAccountID)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid, got %v", err)
	}
	if err := applyTimezone("America/New_York"); err != nil {
		t.Errorf("Expected America/New_York to be valid, got %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}
