package api

import (
	"context"

	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/tasks"
)

type RecordSource interface {
	Len() int
	Records() []dedup.Record
}

type ConfigSource interface {
	GetConfigCount() int
	EnabledConfigs() []*feed.Config
}

var (
	_ RecordSource = (*dedup.Store)(nil)
	_ ConfigSource = (*feed.ConfigCache)(nil)
)

type Handler struct {
	records     RecordSource
	configCache ConfigSource
	scheduler   tasks.TaskSchedulerInterface
	postsFeed   *PostsFeed
	runCtx      context.Context
}
