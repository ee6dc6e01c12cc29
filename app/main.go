package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmkenv/bluesky-auto/app/api"
	"github.com/rmkenv/bluesky-auto/app/bluesky"
	"github.com/rmkenv/bluesky-auto/app/cache"
	"github.com/rmkenv/bluesky-auto/app/cfg"
	"github.com/rmkenv/bluesky-auto/app/database"
	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/metrics"
	"github.com/rmkenv/bluesky-auto/app/post"
	"github.com/rmkenv/bluesky-auto/app/tagger"
	"github.com/rmkenv/bluesky-auto/app/tasks"
)

const loginTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		if errors.Is(err, cfg.ErrMissingCredentials) {
			slog.Error("Missing Bluesky credentials", "error", err)
		} else {
			slog.Error("Failed to load configuration", "error", err)
		}
		return 1
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting bluesky-auto", "version", appCfg.Version, "feeds_dir", appCfg.FeedsDir, "store", appCfg.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := bluesky.NewClient(appCfg.BlueskyHost, appCfg.BlueskyHandle, appCfg.BlueskyPassword)
	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	err = client.Login(loginCtx)
	cancel()
	if err != nil {
		slog.Error("Failed to log in to Bluesky", "host", appCfg.BlueskyHost, "handle", appCfg.BlueskyHandle, "error", err)
		return 1
	}
	slog.Info("Logged in to Bluesky", "handle", appCfg.BlueskyHandle)

	store, closeStore, err := openStore(ctx, appCfg)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		return 1
	}
	defer closeStore()
	store.Load(ctx)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "feeds_dir", appCfg.FeedsDir, "error", err)
		return 1
	}

	m := metrics.New()

	generator, err := newTagGenerator(appCfg, m)
	if err != nil {
		slog.Error("Failed to set up tag generation", "error", err)
		return 1
	}

	fetcher := feed.NewFetcher(appCfg.UserAgent)
	orchestrator := tasks.NewOrchestrator(tasks.OrchestratorConfig{
		Store:     store,
		Tagger:    generator,
		Composer:  post.NewComposer(appCfg.MaxPostBytes),
		Publisher: client,
		Fetcher:   fetcher,
		Extractor: feed.NewContentExtractor(),
		LinkText:  appCfg.LinkText,
		Delay:     appCfg.PostDelay,
		Metrics:   m,
	})
	scheduler := tasks.NewScheduler(configCache, fetcher, feed.NewParser(), feed.NewFilterer(), orchestrator, m, appCfg.Interval)

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)
	if appCfg.Port != "" {
		handler := api.NewHandler(ctx, store, configCache, scheduler)
		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      api.NewServer(handler, appCfg.APIAccessKey, m.Handler()),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
		defer shutdownServer(httpServer)
	}

	if appCfg.Interval <= 0 {
		summary, err := scheduler.RunOnce(ctx)
		if err != nil {
			slog.Warn("Run interrupted", "published", summary.Published, "error", err)
			return 1
		}
		return 0
	}

	slog.Info("Starting scheduler", "interval", appCfg.Interval)
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		return 1
	}

	slog.Info("Shutting down gracefully")
	return 0
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// openStore builds the dedup store on the configured backend. The returned
// func releases the backend.
func openStore(ctx context.Context, appCfg *cfg.Cfg) (*dedup.Store, func(), error) {
	switch appCfg.Store {
	case cfg.StoreRedis:
		client, err := cache.Connect(ctx, appCfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		backend := cache.NewRedisStore(client, appCfg.RedisKey)
		count, err := backend.Count(ctx)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		slog.Info("Using Redis store", "key", backend.Key(), "published_posts", count)

		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Warn("Failed to close Redis client", "error", err)
			}
		}
		return dedup.NewStore(backend), closeClient, nil
	case cfg.StoreSQLite:
		db, err := database.NewConnection(appCfg.StorePath)
		if err != nil {
			return nil, nil, err
		}

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		repo := database.NewPostRepository(db)
		count, err := repo.Count(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("Database ready", "path", appCfg.StorePath, "schema_version", version, "dirty", dirty, "published_posts", count)

		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Warn("Failed to close database", "error", err)
			}
		}
		return dedup.NewStore(repo), closeDB, nil
	default:
		backend := dedup.NewJSONFile(appCfg.StorePath)
		slog.Info("Using JSON store", "path", backend.Path())
		return dedup.NewStore(backend), func() {}, nil
	}
}

func newTagGenerator(appCfg *cfg.Cfg, m *metrics.Metrics) (*tagger.Generator, error) {
	vocab := tagger.DefaultVocabulary()
	if appCfg.VocabularyFile != "" {
		loaded, err := tagger.LoadVocabulary(appCfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		vocab = loaded
	}
	vocab = vocab.WithBanned(appCfg.BannedWords...)
	if len(appCfg.DefaultTags) > 0 {
		vocab = vocab.WithDefaults(appCfg.DefaultTags...)
	}

	var strategies []tagger.Strategy
	if appCfg.RemoteTaggingEnabled() {
		completer := tagger.NewOpenAICompleter(appCfg.OpenAIAPIKey, appCfg.OpenAIModel, appCfg.OpenAIBaseURL)
		strategies = append(strategies, tagger.NewRemoteStrategy(completer, vocab, appCfg.TagCount))
		slog.Info("Remote tag generation enabled", "model", appCfg.OpenAIModel)
	} else {
		slog.Info("Remote tag generation disabled, using local tags only")
	}

	observe := func(strategy string, outcome tagger.Outcome) {
		m.TagOutcome(strategy, outcome.String())
	}
	generator := tagger.NewGenerator(vocab, appCfg.TagCount, strategies...).WithObserver(observe)
	slog.Info("Tag generation ready", "tags_per_post", generator.Count(), "banned_words", len(vocab.Banned))
	return generator, nil
}

func shutdownServer(httpServer *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
		return
	}
	slog.Info("HTTP server stopped")
}
