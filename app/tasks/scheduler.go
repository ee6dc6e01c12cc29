package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type RunSummary struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Feeds       int           `json:"feeds"`
	FeedsFailed int           `json:"feeds_failed"`
	FeedSummary
}

type Scheduler struct {
	configs      FeedSource
	fetcher      Fetcher
	parser       *feed.Parser
	filterer     *feed.Filterer
	orchestrator *Orchestrator
	metrics      *metrics.Metrics
	interval     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	runMu   sync.Mutex
	mu      sync.RWMutex
	lastRun *RunSummary
}

func NewScheduler(configs FeedSource, fetcher Fetcher, parser *feed.Parser, filterer *feed.Filterer,
	orchestrator *Orchestrator, m *metrics.Metrics, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configs:      configs,
		fetcher:      fetcher,
		parser:       parser,
		filterer:     filterer,
		orchestrator: orchestrator,
		metrics:      m,
		interval:     interval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// RunOnce walks every enabled feed, one at a time. Feed failures are
// logged and counted; only cancellation ends the pass early.
func (s *Scheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

// TriggerRun starts a pass in the background and reports false, without
// starting anything, while another pass holds the scheduler.
func (s *Scheduler) TriggerRun(ctx context.Context) bool {
	if !s.runMu.TryLock() {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.runMu.Unlock()

		if _, err := s.run(ctx); err != nil {
			slog.Warn("Triggered run interrupted", "error", err)
		}
	}()
	return true
}

func (s *Scheduler) run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := slog.With("run_id", summary.RunID)

	if err := s.configs.Run(); err != nil {
		log.Warn("Failed to reload feed configurations, using cached", "error", err)
	}

	configs := s.configs.EnabledConfigs()
	if len(configs) == 0 {
		log.Warn("No enabled feeds configured")
	}

	var runErr error
	for _, feedConfig := range configs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		task := NewPublishFeedTask(summary.RunID, feedConfig, s.fetcher, s.parser, s.filterer, s.orchestrator)
		task.Start()
		summary.Feeds++

		err := task.Execute(ctx)
		summary.add(task.Summary)

		switch {
		case err == nil:
			s.feedRun(feedConfig.Name, "ok")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			s.feedRun(feedConfig.Name, "cancelled")
			runErr = err
		default:
			summary.FeedsFailed++
			s.feedRun(feedConfig.Name, "error")
			task.Logger().Error("Error processing feed", "url", feedConfig.URL, "error", err)
		}
		if runErr != nil {
			break
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	if s.metrics != nil {
		s.metrics.RunDuration.Observe(summary.Duration.Seconds())
	}

	s.mu.Lock()
	s.lastRun = &summary
	s.mu.Unlock()

	log.Info("Feed processing complete",
		"feeds", summary.Feeds,
		"feeds_failed", summary.FeedsFailed,
		"published", summary.Published,
		"skipped", summary.Skipped,
		"filtered", summary.Filtered,
		"failed", summary.Failed,
		"duration", summary.Duration)

	return summary, runErr
}

// Start runs a pass immediately and then one per interval until Stop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.runLogged()
		if s.interval <= 0 {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runLogged()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) LastRun() (RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return RunSummary{}, false
	}
	return *s.lastRun, true
}

func (s *Scheduler) runLogged() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		slog.Warn("Run interrupted", "error", err)
	}
}

func (s *Scheduler) feedRun(name, result string) {
	if s.metrics != nil {
		s.metrics.FeedRun(name, result)
	}
}
