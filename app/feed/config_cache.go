package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxItems = 100
	defaultTimeout  = 30
)

// ConfigCache holds the feed configs found in a directory of *.yml files.
// The file name without extension is the feed name.
type ConfigCache struct {
	feedsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Config),
	}
}

// Run loads every config in the feeds directory. A missing directory is
// not an error; it simply yields no feeds.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.feedsDir); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Feeds directory not found", "dir", cc.feedsDir)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	seen := make(map[string]bool, len(files))
	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		seen[feedName] = true

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", config.Settings.Enabled, "url", config.URL)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	for name := range cc.cache {
		if !seen[name] {
			delete(cc.cache, name)
		}
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	configFile := filepath.Join(cc.feedsDir, feedName+".yml")

	feedConfig, err := parseConfig(configFile)
	if err != nil {
		return nil, err
	}
	feedConfig.Name = feedName

	if err := validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[feedConfig.Name] = feedConfig

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", feedName)
	}
	return feedConfig, nil
}

// EnabledConfigs returns enabled feeds sorted by name.
func (cc *ConfigCache) EnabledConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabled := make([]*Config, 0, len(cc.cache))
	for _, c := range cc.cache {
		if c.Settings.Enabled {
			enabled = append(enabled, c)
		}
	}
	slices.SortFunc(enabled, func(a, b *Config) int {
		return strings.Compare(a.Name, b.Name)
	})
	return enabled
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var feedConfig Config
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = defaultMaxItems
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = defaultTimeout
	}

	return &feedConfig, nil
}

func validateConfig(feedConfig *Config) error {
	if feedConfig.Name == "" {
		return errors.New("feed name is required")
	}
	if feedConfig.URL == "" {
		return errors.New("feed URL is required")
	}
	if feedConfig.Settings.MaxItems < 0 {
		return errors.New("max items must be non-negative")
	}
	if feedConfig.Settings.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}

	for i, filter := range feedConfig.Filters {
		if !isFilterField(filter.Field) {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
