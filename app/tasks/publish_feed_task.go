package tasks

import (
	"context"
	"fmt"

	"github.com/rmkenv/bluesky-auto/app/feed"
)

type FeedSummary struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Filtered  int `json:"filtered"`
	Failed    int `json:"failed"`
}

func (s *FeedSummary) add(o FeedSummary) {
	s.Total += o.Total
	s.Published += o.Published
	s.Skipped += o.Skipped
	s.Filtered += o.Filtered
	s.Failed += o.Failed
}

type PublishFeedTask struct {
	Task
	FeedConfig   *feed.Config
	fetcher      Fetcher
	parser       *feed.Parser
	filterer     *feed.Filterer
	orchestrator *Orchestrator

	Summary FeedSummary
}

func NewPublishFeedTask(runID string, feedConfig *feed.Config, fetcher Fetcher, parser *feed.Parser, filterer *feed.Filterer, orchestrator *Orchestrator) *PublishFeedTask {
	return &PublishFeedTask{
		Task:         NewTask(TaskTypePublishFeed, feedConfig.Name, runID),
		FeedConfig:   feedConfig,
		fetcher:      fetcher,
		parser:       parser,
		filterer:     filterer,
		orchestrator: orchestrator,
	}
}

// Execute fetches the feed and publishes its new items in feed order.
// Fetch and parse failures come back as *feed.FetchError; item failures
// are counted, not returned.
func (t *PublishFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	settings := t.FeedConfig.Settings
	log := t.Logger()

	data, err := t.fetcher.Fetch(ctx, t.FeedConfig.URL, settings.TimeoutDuration())
	if err != nil {
		return &feed.FetchError{Feed: t.FeedName, Err: err}
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return &feed.FetchError{Feed: t.FeedName, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	if len(items) == 0 {
		log.Info("No entries found in feed", "title", metadata.Title)
		return nil
	}

	if settings.MaxItems > 0 && len(items) > settings.MaxItems {
		items = items[:settings.MaxItems]
	}
	items = t.filterer.Run(items, t.FeedConfig)

	opts := ItemOptions{
		Feed:           t.FeedName,
		ExtractContent: settings.ExtractContent,
		Timeout:        settings.TimeoutDuration(),
	}

	t.Summary = FeedSummary{Total: len(items)}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if item.IsFiltered {
			t.Summary.Filtered++
			log.Debug("Item filtered", "title", item.Title, "reason", item.FilterReason)
			continue
		}

		result := t.orchestrator.ProcessItem(ctx, item, opts)
		switch result.State {
		case StateRecorded:
			t.Summary.Published++
		case StateSkipped:
			t.Summary.Skipped++
		case StateFailed:
			t.Summary.Failed++
		}
	}

	log.Info("Task completed",
		"duration", t.Elapsed(),
		"total", t.Summary.Total,
		"published", t.Summary.Published,
		"skipped", t.Summary.Skipped,
		"filtered", t.Summary.Filtered,
		"failed", t.Summary.Failed)

	return nil
}
