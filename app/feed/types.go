package feed

import (
	"time"
)

// NoTitle replaces an empty entry title.
const NoTitle = "No Title Provided"

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Item is one normalized feed entry. Body is resolved once at parse time and
// is what tagging and extraction work from.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Body        string
	Description string
	Content     string
	PublishedAt *time.Time
	Authors     []string
	Categories  []string

	IsFiltered   bool
	FilterReason string
}

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"` // seconds
	ExtractContent bool `yaml:"extract_content"`
}

func (s ConfigSettings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
