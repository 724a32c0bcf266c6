package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/scout"
)

const extractionBatchSize = 5

// ExtractContentTask enriches stored topics with readable page text.
// It is maintenance, not ingestion: the pipeline never touches a topic
// after insert, this task only fills the extraction columns.
type ExtractContentTask struct {
	Task
	ScoutConfig      *scout.Config
	httpClient       *http.Client
	contentExtractor *scout.ContentExtractor
	topicRepo        database.TopicRepository
	userAgent        string
}

func NewExtractContentTask(scoutName string, scoutConfig *scout.Config, httpClient *http.Client,
	contentExtractor *scout.ContentExtractor, topicRepo database.TopicRepository, userAgent string) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, scoutName),
		ScoutConfig:      scoutConfig,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		topicRepo:        topicRepo,
		userAgent:        userAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	topics, err := t.topicRepo.GetTopicsForExtraction(t.ScoutConfig.Platform, extractionBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get topics for extraction: %w", err)
	}

	if len(topics) == 0 {
		return nil
	}

	successCount := 0
	failedCount := 0

	for _, topic := range topics {
		if err := t.extractOne(ctx, topic); err != nil {
			failedCount++
			slog.Warn("Content extraction failed", "scout", t.ScoutName, "topic_id", topic.ID, "error", err)
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", "ExtractContent",
		"scout", t.ScoutName,
		"duration", t.GetDuration(),
		"total", len(topics),
		"success", successCount,
		"failed", failedCount)

	return nil
}

func (t *ExtractContentTask) extractOne(ctx context.Context, topic database.TopicForExtraction) error {
	data, err := t.fetchPage(ctx, topic.SourceURL)
	if err != nil {
		if updateErr := t.topicRepo.UpdateExtractionStatus(topic.ID, "failed", err.Error()); updateErr != nil {
			return fmt.Errorf("failed to record extraction failure: %w", updateErr)
		}
		return err
	}

	content, err := t.contentExtractor.Run(data)
	if err != nil {
		if updateErr := t.topicRepo.UpdateExtractionStatus(topic.ID, "failed", err.Error()); updateErr != nil {
			return fmt.Errorf("failed to record extraction failure: %w", updateErr)
		}
		return err
	}

	now := time.Now().UTC()
	if err := t.topicRepo.UpdateExtractedContentAndStatus(topic.ID, content, "success", &now, ""); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	return nil
}

func (t *ExtractContentTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.ScoutConfig.Settings.GetTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
