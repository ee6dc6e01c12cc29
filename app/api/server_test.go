package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/feed"
	"github.com/rmkenv/bluesky-auto/app/metrics"
	"github.com/rmkenv/bluesky-auto/app/tasks"
)

type MockRecords struct {
	records []dedup.Record
}

func (m *MockRecords) Len() int { return len(m.records) }
func (m *MockRecords) Records() []dedup.Record { return m.records }

type MockConfigs struct {
	configs []*feed.Config
}

func (m *MockConfigs) GetConfigCount() int { return len(m.configs) }
func (m *MockConfigs) EnabledConfigs() []*feed.Config { return m.configs }

type MockScheduler struct {
	mu        sync.Mutex
	last      *tasks.RunSummary
	busy      bool
	triggered int
}

func (m *MockScheduler) RunOnce(context.Context) (tasks.RunSummary, error) {
	return tasks.RunSummary{}, nil
}

func (m *MockScheduler) TriggerRun(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return false
	}
	m.triggered++
	return true
}

func (m *MockScheduler) Start() {}
func (m *MockScheduler) Stop() {}
func (m *MockScheduler) LastRun() (tasks.RunSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return tasks.RunSummary{}, false
	}
	return *m.last, true
}

func newTestServer(apiKey string, scheduler *MockScheduler) http.Handler {
	records := &MockRecords{records: []dedup.Record{
		{Title: "Newest", Link: "https://example.com/2", DatePosted: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Hashtags: []string{"#A"}},
		{Title: "Older", Link: "https://example.com/1", DatePosted: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}}
	configs := &MockConfigs{configs: []*feed.Config{{Name: "bbc", URL: "https://example.com/rss"}}}
	m := metrics.New()
	m.ItemState("recorded")

	handler := NewHandler(context.Background(), records, configs, scheduler)
	return NewServer(handler, apiKey, m.Handler())
}

func doRequest(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := doRequest(newTestServer("", &MockScheduler{}), "GET", "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["published_posts"] != float64(2) {
		t.Errorf("Expected 2 published posts, got %v", body["published_posts"])
	}
	if body["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 configuration, got %v", body["loaded_configurations"])
	}
}

func TestServer_Stats(t *testing.T) {
	scheduler := &MockScheduler{}
	server := newTestServer("", scheduler)

	rec := doRequest(server, "GET", "/stats", nil)
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["last_run"] != nil {
		t.Errorf("Expected no last run, got %v", body["last_run"])
	}

	summary := tasks.RunSummary{RunID: "run-1", Feeds: 3}
	summary.Published = 4
	scheduler.last = &summary

	rec = doRequest(server, "GET", "/stats", nil)
	body = nil
	json.Unmarshal(rec.Body.Bytes(), &body)
	last, ok := body["last_run"].(map[string]any)
	if !ok {
		t.Fatalf("Expected last run object, got %v", body["last_run"])
	}
	if last["run_id"] != "run-1" || last["published"] != float64(4) {
		t.Errorf("Unexpected last run: %v", last)
	}
}

func TestServer_Metrics(t *testing.T) {
	rec := doRequest(newTestServer("", &MockScheduler{}), "GET", "/metrics", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestServer_APIDisabledWithoutKey(t *testing.T) {
	rec := doRequest(newTestServer("", &MockScheduler{}), "GET", "/api/posts", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when API is disabled, got %d", rec.Code)
	}
}

func TestServer_APIAuth(t *testing.T) {
	server := newTestServer("secret", &MockScheduler{})

	tests := []struct {
		name     string
		headers  map[string]string
		expected int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"key prefix", map[string]string{"X-API-Key": "secre"}, http.StatusUnauthorized},
		{"key with suffix", map[string]string{"Authorization": "Bearer secret2"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(server, "GET", "/api/feeds", tt.headers)
			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestServer_APIListPosts(t *testing.T) {
	server := newTestServer("secret", &MockScheduler{})
	auth := map[string]string{"X-API-Key": "secret"}

	rec := doRequest(server, "GET", "/api/posts?limit=1", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Posts []dedup.Record `json:"posts"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Total != 2 || len(body.Posts) != 1 {
		t.Errorf("Expected 1 of 2 posts, got %d of %d", len(body.Posts), body.Total)
	}
	if body.Posts[0].Title != "Newest" {
		t.Errorf("Expected newest post first, got %s", body.Posts[0].Title)
	}

	rec = doRequest(server, "GET", "/api/posts?limit=abc", auth)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestServer_APITriggerRun(t *testing.T) {
	scheduler := &MockScheduler{}
	server := newTestServer("secret", scheduler)
	auth := map[string]string{"X-API-Key": "secret"}

	rec := doRequest(server, "POST", "/api/run", auth)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	if scheduler.triggered != 1 {
		t.Errorf("Expected 1 triggered run, got %d", scheduler.triggered)
	}

	scheduler.busy = true
	rec = doRequest(server, "POST", "/api/run", auth)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 while a run is in progress, got %d", rec.Code)
	}
	if scheduler.triggered != 1 {
		t.Errorf("Expected no extra run, got %d", scheduler.triggered)
	}
}
