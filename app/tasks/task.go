package tasks

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const TaskTypePublishFeed TaskType = "publish_feed"

// Task is the identity shared by every unit of work inside a run. Its
// logger carries the run id so one pass can be followed across feeds.
type Task struct {
	ID        string
	Type      TaskType
	FeedName  string
	RunID     string
	StartedAt time.Time
}

func NewTask(taskType TaskType, feedName, runID string) Task {
	return Task{
		ID:       uuid.NewString(),
		Type:     taskType,
		FeedName: feedName,
		RunID:    runID,
	}
}

func (t *Task) Start() {
	t.StartedAt = time.Now()
}

func (t *Task) Elapsed() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	return time.Since(t.StartedAt)
}

func (t *Task) Logger() *slog.Logger {
	return slog.With(
		"run_id", t.RunID,
		"task_id", t.ID,
		"task_type", string(t.Type),
		"feed", t.FeedName)
}
