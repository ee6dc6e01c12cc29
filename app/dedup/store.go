package dedup

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

type Store struct {
	backend Backend
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		records: make(map[string]Record),
	}
}

// Load replaces the in-memory map with the backend contents. A backend
// failure leaves the store empty; it is logged, not returned.
func (s *Store) Load(ctx context.Context) {
	records, err := s.backend.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load published records, starting empty",
			"error", &StorageError{Op: "load", Err: err})
		records = nil
	}
	if records == nil {
		records = make(map[string]Record)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	slog.Info("Published records loaded", "count", len(records))
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

func (s *Store) Record(id string, record Record) {
	record.Hashtags = slices.Clone(record.Hashtags)

	s.mu.Lock()
	s.records[id] = record
	s.mu.Unlock()
}

// Flush writes the whole mapping to the backend.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	snapshot := maps.Clone(s.records)
	s.mu.RUnlock()

	if err := s.backend.Save(ctx, snapshot); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns all records, newest first.
func (s *Store) Records() []Record {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.records))
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := b.DatePosted.Compare(a.DatePosted); c != 0 {
			return c
		}
		return strings.Compare(a.Link, b.Link)
	})
	return out
}
