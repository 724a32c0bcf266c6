package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scoutd/scoutd/app/pipeline"
	"github.com/scoutd/scoutd/app/scout"
)

type RunScoutTask struct {
	Task
	ScoutConfig *scout.Config
	runner      *pipeline.Runner
}

func NewRunScoutTask(scoutName string, scoutConfig *scout.Config, runner *pipeline.Runner) *RunScoutTask {
	return &RunScoutTask{
		Task:        NewTask(TaskTypeRunScout, scoutName),
		ScoutConfig: scoutConfig,
		runner:      runner,
	}
}

func (t *RunScoutTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ScoutConfig.Settings.Enabled {
		slog.Debug("Scout disabled, skipping", "scout", t.ScoutName)
		return nil
	}

	stats, err := t.runner.Run(ctx, t.ScoutConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to run scout: %w", err)
	}

	slog.Info("Task completed",
		"type", "RunScout",
		"scout", t.ScoutName,
		"duration", t.GetDuration(),
		"fetched", stats.ItemsFetched,
		"relevant", stats.RelevantItems,
		"duplicates", stats.Duplicates,
		"new", stats.NewItems)

	return nil
}
