package api

import (
	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/pipeline"
	"github.com/scoutd/scoutd/app/scout"
	"github.com/scoutd/scoutd/app/tasks"
)

type Handler struct {
	configCache *scout.ConfigCache
	scoutRepo   database.ScoutRepository
	topicRepo   database.TopicRepository
	runner      *pipeline.Runner
	scheduler   tasks.TaskSchedulerInterface
}
