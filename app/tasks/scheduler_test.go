package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rmkenv/bluesky-auto/app/feed"
)

func newTestScheduler(f *orchestratorFixture, source *MockFeedSource, fetcher *MockFetcher, interval time.Duration) *Scheduler {
	return NewScheduler(source, fetcher, feed.NewParser(), feed.NewFilterer(), f.o, f.metrics, interval)
}

func TestScheduler_RunOnce(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{Configs: []*feed.Config{
		testFeedConfig("a-down", "https://example.com/down"),
		testFeedConfig("b-news", "https://example.com/rss"),
	}}
	fetcher := &MockFetcher{Pages: map[string][]byte{
		"https://example.com/rss": rssFeed(
			rssItem("One", "https://example.com/1", ""),
			rssItem("Two", "https://example.com/2", ""),
		),
	}}
	s := newTestScheduler(f, source, fetcher, 0)

	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Feeds != 2 || summary.FeedsFailed != 1 {
		t.Errorf("Expected one failed feed of two, got %+v", summary)
	}
	if summary.Published != 2 {
		t.Errorf("Expected 2 published, got %d", summary.Published)
	}
	if summary.RunID == "" {
		t.Error("Expected a run id")
	}
	if source.Reloads != 1 {
		t.Errorf("Expected configs reloaded once, got %d", source.Reloads)
	}
	if fetcher.URLs[0] != "https://example.com/down" {
		t.Errorf("Expected feeds in configured order, got %v", fetcher.URLs)
	}
	if got := testutil.ToFloat64(f.metrics.FeedRuns.WithLabelValues("a-down", "error")); got != 1 {
		t.Errorf("Expected failed feed run counted, got %v", got)
	}

	last, ok := s.LastRun()
	if !ok || last.RunID != summary.RunID {
		t.Errorf("Expected last run to be recorded, got %+v", last)
	}
}

func TestScheduler_RunOnce_SecondRunPublishesNothing(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{Configs: []*feed.Config{testFeedConfig("news", "https://example.com/rss")}}
	fetcher := &MockFetcher{Pages: map[string][]byte{
		"https://example.com/rss": rssFeed(rssItem("One", "https://example.com/1", "")),
	}}
	s := newTestScheduler(f, source, fetcher, 0)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if second.Published != 0 || second.Skipped != 1 {
		t.Errorf("Expected second run to skip everything, got %+v", second)
	}
	if len(f.publisher.Calls) != 1 {
		t.Errorf("Expected one publish across both runs, got %d", len(f.publisher.Calls))
	}
}

func TestScheduler_RunOnce_ReloadFailureUsesCache(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{
		Configs: []*feed.Config{testFeedConfig("news", "https://example.com/rss")},
		RunErr:  errors.New("bad yaml"),
	}
	fetcher := &MockFetcher{Pages: map[string][]byte{"https://example.com/rss": rssFeed()}}
	s := newTestScheduler(f, source, fetcher, 0)

	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Feeds != 1 {
		t.Errorf("Expected cached feed to run, got %d feeds", summary.Feeds)
	}
}

func TestScheduler_RunOnce_Cancelled(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{Configs: []*feed.Config{testFeedConfig("news", "https://example.com/rss")}}
	s := newTestScheduler(f, source, &MockFetcher{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if summary.Feeds != 0 {
		t.Errorf("Expected no feeds processed, got %d", summary.Feeds)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{}
	s := newTestScheduler(f, source, &MockFetcher{}, time.Hour)

	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.LastRun(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected an immediate first run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Stop()

	if source.Reloads != 1 {
		t.Errorf("Expected exactly one run before stop, got %d", source.Reloads)
	}
}

func TestScheduler_TriggerRun(t *testing.T) {
	f := newOrchestratorFixture()
	source := &MockFeedSource{}
	s := newTestScheduler(f, source, &MockFetcher{}, 0)

	s.runMu.Lock()
	if s.TriggerRun(context.Background()) {
		t.Error("Expected trigger to be refused while a run is in progress")
	}
	s.runMu.Unlock()

	if !s.TriggerRun(context.Background()) {
		t.Fatal("Expected trigger to start a run")
	}
	s.Stop()

	if _, ok := s.LastRun(); !ok {
		t.Error("Expected the triggered run to complete")
	}
	if source.Reloads != 1 {
		t.Errorf("Expected exactly one run, got %d", source.Reloads)
	}
}
