package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/scoutd/scoutd/app/cfg"
	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/pipeline"
	"github.com/scoutd/scoutd/app/scout"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache      *scout.ConfigCache
	scoutRepo        database.ScoutRepository
	topicRepo        database.TopicRepository
	runner           *pipeline.Runner
	contentExtractor *scout.ContentExtractor
	httpClient       *http.Client
	userAgent        string
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(configCache *scout.ConfigCache, scoutRepo database.ScoutRepository,
	topicRepo database.TopicRepository, runner *pipeline.Runner,
	contentExtractor *scout.ContentExtractor, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:      configCache,
		scoutRepo:        scoutRepo,
		topicRepo:        topicRepo,
		runner:           runner,
		contentExtractor: contentExtractor,
		httpClient:       httpClient,
		userAgent:        cfg.UserAgent,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	scoutConfigs := s.configCache.GetConfigs()
	if len(scoutConfigs) == 0 {
		slog.Debug("No scout configurations found")
		return
	}

	slog.Debug("Processing scout configurations", "count", len(scoutConfigs))

	for _, scoutConfig := range scoutConfigs {
		syncTask := NewSyncScoutConfigTask(scoutConfig.Name, scoutConfig, s.scoutRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncScoutConfigTask", "scout", scoutConfig.Name, "error", err)
			continue
		}

		if !scoutConfig.Settings.Enabled {
			slog.Debug("Scout disabled, skipping RunScoutTask", "scout", scoutConfig.Name)
			continue
		}

		runTask := NewRunScoutTask(scoutConfig.Name, scoutConfig, s.runner)
		if err := s.EnqueueTask(runTask); err != nil {
			slog.Warn("Failed to enqueue RunScoutTask", "scout", scoutConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	scoutConfigs := s.configCache.GetEnabledConfigs()
	if len(scoutConfigs) == 0 {
		slog.Debug("No enabled scout configurations found")
		return
	}

	slog.Debug("Processing enabled scout configurations for task scheduling", "count", len(scoutConfigs))

	for _, scoutConfig := range scoutConfigs {
		record, err := s.scoutRepo.GetScout(scoutConfig.Name)
		if err != nil {
			slog.Warn("Failed to get scout from database, skipping", "scout", scoutConfig.Name, "error", err)
			continue
		}
		if record == nil {
			slog.Warn("Scout not found in database, skipping", "scout", scoutConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if record.NextRunAt != nil && record.NextRunAt.After(now) {
			slog.Debug("Scout not due for a run yet", "scout", scoutConfig.Name, "next_run_at", record.NextRunAt)
		} else {
			runTask := NewRunScoutTask(scoutConfig.Name, scoutConfig, s.runner)
			if err := s.EnqueueTask(runTask); err != nil {
				slog.Warn("Failed to enqueue RunScoutTask", "scout", scoutConfig.Name, "error", err)
			}
		}

		if scoutConfig.Settings.ExtractContent {
			extractTask := NewExtractContentTask(scoutConfig.Name, scoutConfig, s.httpClient,
				s.contentExtractor, s.topicRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "scout", scoutConfig.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "scout", task.GetScoutName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
