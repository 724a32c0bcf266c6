package scout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache loads scout configuration files from a directory and keeps
// them in memory. Configs are immutable once loaded.
type ConfigCache struct {
	scoutsDir string
	cache     map[string]*Config
	mu        sync.RWMutex
}

func NewConfigCache(scoutsDir string) *ConfigCache {
	return &ConfigCache{
		scoutsDir: scoutsDir,
		cache:     make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.scoutsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.scoutsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive scout name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		scoutName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(scoutName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "scout", scoutName,
			"platform", config.Platform, "adapter", config.Adapter,
			"enabled", config.Settings.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(scoutName string) (*Config, error) {
	configFile := cc.getConfigFilePath(scoutName)
	scoutConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	scoutConfig.Name = scoutName

	if err := cc.validateConfig(scoutConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[scoutConfig.Name] = scoutConfig

	return scoutConfig, nil
}

func (cc *ConfigCache) GetConfig(scoutName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	scoutConfig, ok := cc.cache[scoutName]
	if !ok {
		return nil, fmt.Errorf("scout config with name '%s' not found", scoutName)
	}
	return scoutConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var scoutConfig Config
	if err := yaml.Unmarshal(data, &scoutConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&scoutConfig)

	return &scoutConfig, nil
}

func applyDefaults(c *Config) {
	if c.KeyPrefix == "" {
		c.KeyPrefix = c.Platform
	}
	if c.Settings.RefreshInterval == 0 {
		c.Settings.RefreshInterval = 1800
	}
	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = 10
	}
	if c.Settings.MaxItems == 0 {
		c.Settings.MaxItems = 20
	}
	if c.Settings.QueryDelayMs == 0 {
		c.Settings.QueryDelayMs = 500
	}
	if c.Settings.DailyCap == 0 {
		c.Settings.DailyCap = 10
	}
	if c.Settings.PersistThreshold == 0 {
		c.Settings.PersistThreshold = 30
	}
	if c.Settings.AlertThreshold == 0 {
		c.Settings.AlertThreshold = 60
	}
	if c.Settings.AlertLimit == 0 {
		c.Settings.AlertLimit = 5
	}
	if c.Scoring.DefaultScore == 0 {
		c.Scoring.DefaultScore = 15
	}
	if c.Scoring.KeywordPoints == 0 {
		c.Scoring.KeywordPoints = 5
	}
	if c.Scoring.HighValuePoints == 0 {
		c.Scoring.HighValuePoints = 15
	}
}

func (cc *ConfigCache) validateConfig(scoutConfig *Config) error {
	if scoutConfig == nil {
		return fmt.Errorf("scoutConfig is nil")
	}

	if scoutConfig.Platform == "" {
		return fmt.Errorf("platform is required")
	}

	validAdapters := map[string]bool{
		AdapterRSS:        true,
		AdapterHackerNews: true,
		AdapterDevTo:      true,
		AdapterHTMLJSON:   true,
		AdapterSearch:     true,
	}
	if !validAdapters[scoutConfig.Adapter] {
		return fmt.Errorf("invalid adapter: %s", scoutConfig.Adapter)
	}

	if len(scoutConfig.RunQueries()) == 0 {
		return fmt.Errorf("adapter %s requires at least one feed or query", scoutConfig.Adapter)
	}

	nonNegativeFields := map[string]int{
		"refresh interval":  scoutConfig.Settings.RefreshInterval,
		"timeout":           scoutConfig.Settings.Timeout,
		"max items":         scoutConfig.Settings.MaxItems,
		"query delay":       scoutConfig.Settings.QueryDelayMs,
		"daily cap":         scoutConfig.Settings.DailyCap,
		"persist threshold": scoutConfig.Settings.PersistThreshold,
		"alert threshold":   scoutConfig.Settings.AlertThreshold,
		"alert limit":       scoutConfig.Settings.AlertLimit,
	}
	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	// An alert-eligible item must always be persist-eligible.
	if scoutConfig.Settings.AlertThreshold < scoutConfig.Settings.PersistThreshold {
		return fmt.Errorf("alert threshold (%d) must not be below persist threshold (%d)",
			scoutConfig.Settings.AlertThreshold, scoutConfig.Settings.PersistThreshold)
	}

	for i, category := range scoutConfig.Scoring.Categories {
		if category.Name == "" {
			return fmt.Errorf("scoring category at index %d has no name", i)
		}
		if category.Weight < 0 || category.Weight > 100 {
			return fmt.Errorf("scoring category %s has weight outside [0,100]", category.Name)
		}
		if len(category.Patterns) == 0 {
			return fmt.Errorf("scoring category %s has no patterns", category.Name)
		}
		for _, pattern := range category.Patterns {
			if _, err := regexp.Compile("(?i)" + pattern); err != nil {
				return fmt.Errorf("scoring category %s has invalid pattern %q: %w", category.Name, pattern, err)
			}
		}
	}

	for _, pattern := range scoutConfig.Scoring.HighValueContexts {
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("invalid high value context pattern %q: %w", pattern, err)
		}
	}

	validMetrics := map[string]bool{"likes": true, "comments": true, "shares": true}
	for i, bonus := range scoutConfig.Scoring.Engagement {
		if !validMetrics[bonus.Metric] {
			return fmt.Errorf("invalid engagement metric at index %d: %s", i, bonus.Metric)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(scoutName string) string {
	return filepath.Join(cc.scoutsDir, scoutName+".yml")
}
