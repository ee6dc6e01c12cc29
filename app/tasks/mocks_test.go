package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/post"
)

type MockTagger struct {
	Tags   []string
	Bodies []string
}

func (m *MockTagger) Generate(_ context.Context, _, body string) []string {
	m.Bodies = append(m.Bodies, body)
	return m.Tags
}

type publishCall struct {
	Text   string
	Facets []post.Facet
}

type MockPublisher struct {
	Calls []publishCall
	Err   error
}

func (m *MockPublisher) Publish(_ context.Context, text string, facets []post.Facet) (string, error) {
	m.Calls = append(m.Calls, publishCall{Text: text, Facets: facets})
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("at://did:plc:test/app.bsky.feed.post/%d", len(m.Calls)), nil
}

type MockFetcher struct {
	Pages map[string][]byte
	Err   error
	URLs  []string
}

func (m *MockFetcher) Fetch(_ context.Context, url string, _ time.Duration) ([]byte, error) {
	m.URLs = append(m.URLs, url)
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

type MockBackend struct {
	Records map[string]dedup.Record
	SaveErr error
	Saves   int
}

func (m *MockBackend) Load(_ context.Context) (map[string]dedup.Record, error) {
	return m.Records, nil
}

func (m *MockBackend) Save(_ context.Context, records map[string]dedup.Record) error {
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Records = records
	return nil
}

type MockFeedSource struct {
	Configs []*feed.Config
	Reloads int
	RunErr  error
}

func (m *MockFeedSource) Run() error {
	m.Reloads++
	return m.RunErr
}

func (m *MockFeedSource) EnabledConfigs() []*feed.Config {
	return m.Configs
}

// newTestStore returns a loaded store that already knows the given links.
func newTestStore(backend *MockBackend, knownLinks ...string) *dedup.Store {
	if backend.Records == nil {
		backend.Records = make(map[string]dedup.Record)
	}
	for _, link := range knownLinks {
		backend.Records[dedup.ItemID(link)] = dedup.Record{Link: link}
	}
	store := dedup.NewStore(backend)
	store.Load(context.Background())
	return store
}

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	r.calls = append(r.calls, d)
}

func rssFeed(items ...string) []byte {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Test</title>`
	for _, item := range items {
		body += item
	}
	return []byte(body + `</channel></rss>`)
}

func rssItem(title, link, description string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description>%s</description></item>`, title, link, description)
}
