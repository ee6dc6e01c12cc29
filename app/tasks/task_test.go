package tasks

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	a := NewTask(TaskTypePublishFeed, "bbc", "run-1")
	b := NewTask(TaskTypePublishFeed, "bbc", "run-1")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct task ids, got %q and %q", a.ID, b.ID)
	}
	if a.Type != TaskTypePublishFeed || a.FeedName != "bbc" || a.RunID != "run-1" {
		t.Errorf("Unexpected task: %+v", a)
	}
}

func TestTask_Elapsed(t *testing.T) {
	task := NewTask(TaskTypePublishFeed, "bbc", "run-1")
	if task.Elapsed() != 0 {
		t.Errorf("Expected zero elapsed before Start, got %s", task.Elapsed())
	}

	task.Start()
	task.StartedAt = task.StartedAt.Add(-time.Second)
	if task.Elapsed() < time.Second {
		t.Errorf("Expected at least 1s elapsed, got %s", task.Elapsed())
	}
}

func TestTask_Logger(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	task := NewTask(TaskTypePublishFeed, "bbc", "run-1")
	task.Logger().Info("Task completed")

	out := buf.String()
	for _, want := range []string{"run_id=run-1", "task_id=" + task.ID, "task_type=publish_feed", "feed=bbc"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in log line, got %q", want, out)
		}
	}
}
