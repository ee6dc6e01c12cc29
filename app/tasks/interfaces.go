package tasks

import (
	"context"
	"time"

	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/post"
)

type TagGenerator interface {
	Generate(ctx context.Context, title, body string) []string
}

// Publisher sends a composed message and returns the id of the new post.
type Publisher interface {
	Publish(ctx context.Context, text string, facets []post.Facet) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// FeedSource reloads feed configs and lists the enabled ones.
type FeedSource interface {
	Run() error
	EnabledConfigs() []*feed.Config
}

// TaskSchedulerInterface is what main drives: a single pass, or a
// background loop of passes.
type TaskSchedulerInterface interface {
	RunOnce(ctx context.Context) (RunSummary, error)
	TriggerRun(ctx context.Context) bool
	Start()
	Stop()
	LastRun() (RunSummary, bool)
}
