package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/pipeline"
	"github.com/scoutd/scoutd/app/scout"
	"github.com/scoutd/scoutd/app/tasks"
)

func NewHandler(configCache *scout.ConfigCache, scoutRepo database.ScoutRepository,
	topicRepo database.TopicRepository, runner *pipeline.Runner,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		configCache: configCache,
		scoutRepo:   scoutRepo,
		topicRepo:   topicRepo,
		runner:      runner,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if scoutCount, err := h.scoutRepo.GetScoutCount(); err == nil {
		health["scouts"] = scoutCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	now := time.Now().In(time.Local)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	platformStats, err := h.topicRepo.GetPlatformStats(todayStart)
	if err != nil {
		slog.Error("Database error", "operation", "get_platform_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	platforms := make([]map[string]interface{}, 0, len(platformStats))
	for _, stat := range platformStats {
		platforms = append(platforms, map[string]interface{}{
			"platform":    stat.Platform,
			"topics":      stat.TopicCount,
			"seen_today":  stat.SeenToday,
			"unprocessed": stat.Unprocessed,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"platforms": platforms,
		"timestamp": now.Format(time.RFC3339),
	})
}

func (h *Handler) APIListScouts(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	scouts := make([]map[string]interface{}, 0, len(configs))

	for _, scoutConfig := range configs {
		scoutInfo := map[string]interface{}{
			"name":              scoutConfig.Name,
			"platform":          scoutConfig.Platform,
			"adapter":           scoutConfig.Adapter,
			"enabled":           scoutConfig.Settings.Enabled,
			"daily_cap":         scoutConfig.Settings.DailyCap,
			"persist_threshold": scoutConfig.Settings.PersistThreshold,
			"alert_threshold":   scoutConfig.Settings.AlertThreshold,
			"refresh_interval":  scoutConfig.Settings.GetRefreshInterval().String(),
			"queries":           len(scoutConfig.RunQueries()),
		}

		if record, err := h.scoutRepo.GetScout(scoutConfig.Name); err == nil && record != nil {
			scoutInfo["last_run_at"] = record.LastRunAt
			scoutInfo["next_run_at"] = record.NextRunAt
		}

		if topicCount, err := h.topicRepo.GetTopicCount(scoutConfig.Platform); err == nil {
			scoutInfo["topic_count"] = topicCount
		}

		scouts = append(scouts, scoutInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"scouts": scouts,
		"total":  len(scouts),
	})
}

// APIRunScout triggers a scout run synchronously and returns its stats.
// An optional JSON body narrows the run to a subset of queries or feeds.
func (h *Handler) APIRunScout(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing scout name parameter"})
		return
	}

	scoutConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Scout configuration not found", "scout", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Scout configuration not found"})
		return
	}

	var override *pipeline.Override
	if c.Request.ContentLength > 0 {
		override = &pipeline.Override{}
		if err := c.ShouldBindJSON(override); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}

	stats, err := h.runner.Run(c.Request.Context(), scoutConfig, override)
	if err != nil {
		slog.Error("Manual scout run failed", "scout", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Scout run failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   stats != nil,
		"stats":     stats,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) APIReloadScout(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing scout name parameter"})
		return
	}

	scoutConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "scout", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncScoutConfigTask(name, scoutConfig, h.scoutRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "scout", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued",
		"scout": gin.H{
			"name":     name,
			"platform": scoutConfig.Platform,
			"enabled":  scoutConfig.Settings.Enabled,
		},
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}

func (h *Handler) APIListTopics(c *gin.Context) {
	filter := database.TopicFilter{
		Platform: c.Query("platform"),
		Category: c.Query("category"),
		Limit:    50,
	}

	if v := c.Query("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score parameter"})
			return
		}
		filter.MinScore = minScore
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		filter.Limit = limit
	}

	filter.Unprocessed = c.Query("unprocessed") == "true"

	topics, err := h.topicRepo.GetTopics(filter)
	if err != nil {
		slog.Error("Database error", "operation", "get_topics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]map[string]interface{}, 0, len(topics))
	for _, topic := range topics {
		result = append(result, map[string]interface{}{
			"id":                topic.ID,
			"platform":          topic.Platform,
			"post_key":          topic.PostKey,
			"title":             topic.Title,
			"source_url":        topic.SourceURL,
			"relevance_score":   topic.RelevanceScore,
			"category":          topic.Category,
			"matched_keywords":  topic.MatchedKeywords,
			"is_high_value":     topic.IsHighValue,
			"processed":         topic.Processed,
			"extraction_status": topic.ContentExtractionStatus,
			"created_at":        topic.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"topics": result,
		"total":  len(result),
	})
}

func (h *Handler) APIMarkTopicProcessed(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid topic id parameter"})
		return
	}

	if err := h.topicRepo.MarkProcessed(id); err != nil {
		slog.Error("Database error", "operation", "mark_processed", "topic_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      id,
	})
}
