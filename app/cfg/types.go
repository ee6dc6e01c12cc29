package cfg

import "time"

type Cfg struct {
	// Feeds and storage
	FeedsDir  string
	Store     string
	StorePath string
	RedisURL  string
	RedisKey  string

	// Message composition
	MaxPostBytes int
	TagCount     int
	PostDelay    time.Duration
	LinkText     string

	// Tagging vocabulary
	VocabularyFile string
	BannedWords    []string
	DefaultTags    []string

	// Bluesky account
	BlueskyHost     string
	BlueskyHandle   string
	BlueskyPassword string

	// Remote tagging
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Scheduling and status API
	Interval     time.Duration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}

func (c *Cfg) RemoteTaggingEnabled() bool {
	return c.OpenAIAPIKey != ""
}
