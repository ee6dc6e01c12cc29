package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/metrics"
	"github.com/rmkenv/bluesky-auto/app/post"
)

type State string

const (
	StateDiscovered    State = "discovered"
	StateSkipped       State = "skipped"
	StateTagsGenerated State = "tags_generated"
	StateComposed      State = "composed"
	StateAnnotated     State = "annotated"
	StatePublished     State = "published"
	StateRecorded      State = "recorded"
	StateFailed        State = "failed"
)

type ItemOptions struct {
	Feed           string
	ExtractContent bool
	Timeout        time.Duration
}

type ItemResult struct {
	ID     string
	State  State
	Reason string
	Tags   []string
	PostID string
	Err    error
}

type OrchestratorConfig struct {
	Store     *dedup.Store
	Tagger    TagGenerator
	Composer  *post.Composer
	Publisher Publisher

	// Optional article fetching for items that arrive without a body.
	Fetcher   Fetcher
	Extractor *feed.ContentExtractor

	// LinkText replaces the raw link in the message when set.
	LinkText string
	Delay    time.Duration
	Metrics  *metrics.Metrics
}

// Orchestrator takes one feed item through tagging, composition,
// annotation, publishing and recording.
type Orchestrator struct {
	store     *dedup.Store
	tagger    TagGenerator
	composer  *post.Composer
	publisher Publisher
	fetcher   Fetcher
	extractor *feed.ContentExtractor
	linkText  string
	delay     time.Duration
	metrics   *metrics.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewOrchestrator(c OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:     c.Store,
		tagger:    c.Tagger,
		composer:  cmp.Or(c.Composer, post.NewComposer(post.DefaultMaxBytes)),
		publisher: c.Publisher,
		fetcher:   c.Fetcher,
		extractor: c.Extractor,
		linkText:  c.LinkText,
		delay:     c.Delay,
		metrics:   c.Metrics,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func (o *Orchestrator) ProcessItem(ctx context.Context, item feed.Item, opts ItemOptions) ItemResult {
	result := ItemResult{}
	o.advance(&result, StateDiscovered)

	if item.Link == "" {
		return o.skip(&result, opts, item, "no link")
	}

	result.ID = dedup.ItemID(item.Link)
	if o.store.Contains(result.ID) {
		return o.skip(&result, opts, item, "already published")
	}

	body := item.Body
	if body == "" && opts.ExtractContent {
		body = o.extractBody(ctx, item, opts)
	}

	tags := o.tagger.Generate(ctx, item.Title, body)
	if len(tags) == 0 {
		slog.Warn("No tags generated", "feed", opts.Feed, "title", item.Title)
	}
	o.advance(&result, StateTagsGenerated)

	linkText := cmp.Or(o.linkText, item.Link)
	message, err := o.composer.Compose(item.Title, linkText, tags)
	if err != nil {
		return o.fail(&result, opts, item, fmt.Errorf("failed to compose message: %w", err))
	}
	result.Tags = message.Tags
	o.advance(&result, StateComposed)

	facets := post.Annotate(message.Text, linkText, item.Link, message.Tags)
	o.advance(&result, StateAnnotated)

	postID, err := o.publisher.Publish(ctx, message.Text, facets)
	if err != nil {
		return o.fail(&result, opts, item, err)
	}
	result.PostID = postID
	o.advance(&result, StatePublished)

	hashtags := make([]string, len(message.Tags))
	for i, tag := range message.Tags {
		hashtags[i] = post.TagMarker + tag
	}
	o.store.Record(result.ID, dedup.Record{
		Title:      item.Title,
		Link:       item.Link,
		DatePosted: o.now().UTC(),
		Hashtags:   hashtags,
		PostID:     postID,
	})
	if err := o.store.Flush(ctx); err != nil {
		slog.Error("Failed to save published records", "feed", opts.Feed, "id", result.ID, "error", err)
	}
	o.advance(&result, StateRecorded)

	slog.Info("Item published",
		"feed", opts.Feed,
		"title", item.Title,
		"post_id", postID,
		"tags", hashtags,
		"bytes", message.ByteLength(),
		"truncated", message.Truncated)

	o.sleep(ctx, o.delay)

	return result
}

func (o *Orchestrator) extractBody(ctx context.Context, item feed.Item, opts ItemOptions) string {
	if o.fetcher == nil || o.extractor == nil {
		return ""
	}

	data, err := o.fetcher.Fetch(ctx, item.Link, opts.Timeout)
	if err != nil {
		slog.Warn("Failed to fetch article for extraction", "feed", opts.Feed, "url", item.Link, "error", err)
		return ""
	}

	text, err := o.extractor.Run(data, item.Link)
	if err != nil {
		slog.Warn("Failed to extract article content", "feed", opts.Feed, "url", item.Link, "error", err)
		return ""
	}

	return text
}

func (o *Orchestrator) advance(result *ItemResult, state State) {
	result.State = state
	if o.metrics != nil {
		o.metrics.ItemState(string(state))
	}
}

func (o *Orchestrator) skip(result *ItemResult, opts ItemOptions, item feed.Item, reason string) ItemResult {
	result.Reason = reason
	o.advance(result, StateSkipped)
	slog.Debug("Item skipped", "feed", opts.Feed, "title", item.Title, "reason", reason)
	return *result
}

func (o *Orchestrator) fail(result *ItemResult, opts ItemOptions, item feed.Item, err error) ItemResult {
	result.Err = err
	o.advance(result, StateFailed)
	slog.Error("Item failed", "feed", opts.Feed, "title", item.Title, "link", item.Link, "error", err)
	return *result
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
