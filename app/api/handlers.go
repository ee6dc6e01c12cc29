package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmkenv/bluesky-auto/app/tasks"
)

const (
	defaultPostsLimit = 50
	maxPostsLimit     = 500
)

// NewHandler builds the status handlers. Runs triggered over the API use
// runCtx, so they stop with the process rather than with the request.
func NewHandler(runCtx context.Context, records RecordSource, configCache ConfigSource, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		records:     records,
		configCache: configCache,
		scheduler:   scheduler,
		postsFeed:   NewPostsFeed("Published posts", ""),
		runCtx:      runCtx,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                "ok",
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
		"published_posts":       h.records.Len(),
		"loaded_configurations": h.configCache.GetConfigCount(),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	last, ok := h.scheduler.LastRun()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"published_posts": h.records.Len(),
			"last_run":        nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"published_posts": h.records.Len(),
		"last_run":        last,
		"last_run_took":   last.Duration.String(),
	})
}

// GetPostsFeed serves the most recent records as RSS.
func (h *Handler) GetPostsFeed(c *gin.Context) {
	records := h.records.Records()
	if len(records) > defaultPostsLimit {
		records = records[:defaultPostsLimit]
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", h.postsFeed.Generate(records))
}

func (h *Handler) APIListPosts(c *gin.Context) {
	limit := defaultPostsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxPostsLimit)
	}

	records := h.records.Records()
	total := len(records)
	if len(records) > limit {
		records = records[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": records,
		"total": total,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.EnabledConfigs()

	feeds := make([]gin.H, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, gin.H{
			"name":            feedConfig.Name,
			"url":             feedConfig.URL,
			"max_items":       feedConfig.Settings.MaxItems,
			"timeout":         feedConfig.Settings.TimeoutDuration().String(),
			"extract_content": feedConfig.Settings.ExtractContent,
			"filters":         len(feedConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

// APITriggerRun starts a pass in the background, or answers 409 while one
// is already running.
func (h *Handler) APITriggerRun(c *gin.Context) {
	if !h.scheduler.TriggerRun(h.runCtx) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Run in progress",
			"message": "A run is already in progress, try again when it finishes",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Run scheduled",
	})
}
