package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/scout"
)

type SyncScoutConfigTask struct {
	Task
	ScoutConfig *scout.Config
	scoutRepo   database.ScoutRepository
}

func NewSyncScoutConfigTask(scoutName string, scoutConfig *scout.Config, scoutRepo database.ScoutRepository) *SyncScoutConfigTask {
	return &SyncScoutConfigTask{
		Task:        NewTask(TaskTypeSyncScoutConfig, scoutName),
		ScoutConfig: scoutConfig,
		scoutRepo:   scoutRepo,
	}
}

func (t *SyncScoutConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.scoutRepo.UpsertScout(t.ScoutName, t.ScoutConfig.Platform, t.ScoutConfig.Settings.Enabled)
	if err != nil {
		return fmt.Errorf("failed to register scout: %w", err)
	}

	slog.Debug("Scout registered",
		"scout", t.ScoutName,
		"platform", t.ScoutConfig.Platform,
		"enabled", t.ScoutConfig.Settings.Enabled)

	return nil
}
