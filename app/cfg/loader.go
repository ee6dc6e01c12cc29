package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	defaultJSONPath   = "posted_entries.json"
	defaultSQLitePath = "posted_entries.db"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ErrMissingCredentials stops startup before any feed or store is touched.
var ErrMissingCredentials = errors.New("BLUESKY_HANDLE and BLUESKY_PASSWORD must be set")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	FeedsDir  string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Store     string `long:"store" env:"STORE_BACKEND" default:"json" choice:"json" choice:"sqlite" choice:"redis" description:"Where published records are kept"`
	StorePath string `long:"store-path" env:"STORE_PATH" description:"Path of the JSON file or SQLite database (default posted_entries.json / posted_entries.db)"`
	RedisURL  string `long:"redis-url" env:"REDIS_URL" default:"redis://localhost:6379/0" description:"Redis connection URL for the redis store"`
	RedisKey  string `long:"redis-key" env:"REDIS_KEY" default:"bluesky-auto:posted" description:"Redis hash holding published records"`

	MaxPostBytes int    `long:"max-post-bytes" env:"MAX_POST_BYTES" default:"300" description:"Maximum message size in UTF-8 bytes"`
	TagCount     int    `long:"tag-count" env:"TAG_COUNT" default:"3" description:"Number of hashtags per post"`
	PostDelay    string `long:"post-delay" env:"POST_DELAY" default:"3s" description:"Pause after each published post"`
	LinkText     string `long:"link-text" env:"LINK_TEXT" description:"Text shown for the article link (default: the link itself)"`

	VocabularyFile string   `long:"vocabulary" env:"VOCABULARY_FILE" description:"YAML file with banned words, stopwords and default tags"`
	BannedWords    []string `long:"banned-word" env:"BANNED_WORDS" env-delim:"," description:"Extra banned word (repeatable)"`
	DefaultTags    []string `long:"default-tag" env:"DEFAULT_TAGS" env-delim:"," description:"Replacement default tag list (repeatable)"`

	BlueskyHost     string `long:"bluesky-host" env:"BLUESKY_HOST" default:"https://bsky.social" description:"PDS host"`
	BlueskyHandle   string `long:"bluesky-handle" env:"BLUESKY_HANDLE" description:"Bluesky handle (required)"`
	BlueskyPassword string `long:"bluesky-password" env:"BLUESKY_PASSWORD" description:"Bluesky app password (required)"`

	OpenAIAPIKey  string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"Enables remote tag generation"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Chat model for tag generation"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"Alternative OpenAI-compatible endpoint"`

	Interval     string `long:"interval" env:"RUN_INTERVAL" default:"0" description:"Repeat runs at this interval (0 runs once)"`
	Port         string `long:"port" env:"PORT" description:"Status API port (disabled when empty)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"bluesky-auto/1.0" description:"User agent string for HTTP requests"`
	EnvFile   string `long:"env-file" env:"ENV_FILE" default:".env" description:"Dotenv file loaded before reading the environment"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads the dotenv file, then flags and environment. It returns nil
// without error when help was requested.
func Load(args []string) (*Cfg, error) {
	loadEnvFile(envFileFromArgs(args))

	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg, err := raw.toCfg()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) Validate() error {
	if c.BlueskyHandle == "" || c.BlueskyPassword == "" {
		return ErrMissingCredentials
	}
	if c.MaxPostBytes <= 0 {
		return fmt.Errorf("max post bytes must be positive, got %d", c.MaxPostBytes)
	}
	if c.TagCount < 0 {
		return fmt.Errorf("tag count must be non-negative, got %d", c.TagCount)
	}
	if c.PostDelay < 0 {
		return fmt.Errorf("post delay must be non-negative, got %s", c.PostDelay)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %s", c.Interval)
	}
	return nil
}

func (raw rawCfg) toCfg() (*Cfg, error) {
	postDelay, err := parseDuration(raw.PostDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid post delay: %w", err)
	}
	interval, err := parseDuration(raw.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid interval: %w", err)
	}

	storePath := raw.StorePath
	if storePath == "" {
		storePath = defaultJSONPath
		if raw.Store == StoreSQLite {
			storePath = defaultSQLitePath
		}
	}

	return &Cfg{
		FeedsDir:        raw.FeedsDir,
		Store:           raw.Store,
		StorePath:       storePath,
		RedisURL:        raw.RedisURL,
		RedisKey:        raw.RedisKey,
		MaxPostBytes:    raw.MaxPostBytes,
		TagCount:        raw.TagCount,
		PostDelay:       postDelay,
		LinkText:        raw.LinkText,
		VocabularyFile:  raw.VocabularyFile,
		BannedWords:     raw.BannedWords,
		DefaultTags:     raw.DefaultTags,
		BlueskyHost:     raw.BlueskyHost,
		BlueskyHandle:   raw.BlueskyHandle,
		BlueskyPassword: raw.BlueskyPassword,
		OpenAIAPIKey:    raw.OpenAIAPIKey,
		OpenAIModel:     raw.OpenAIModel,
		OpenAIBaseURL:   raw.OpenAIBaseURL,
		Interval:        interval,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		UserAgent:       raw.UserAgent,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}, nil
}

// envFileFromArgs finds --env-file ahead of the full parse so the dotenv
// values can feed the env defaults.
func envFileFromArgs(args []string) string {
	var pre struct {
		EnvFile string `long:"env-file" env:"ENV_FILE" default:".env"`
	}
	parser := flags.NewParser(&pre, flags.IgnoreUnknown)
	parser.ParseArgs(args)
	return pre.EnvFile
}

// loadEnvFile never overrides variables already set in the process.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		slog.Debug("No env file loaded; relying on process environment", "file", path)
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("Failed to load env file", "file", path, "error", err)
		return
	}
	slog.Debug("Loaded env file", "file", path)
}
