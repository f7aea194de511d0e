package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	records     map[string]Record

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.initialized = true
		s.records = make(map[string]Record)
	}
	return nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return Record{}, ErrNotInitialized
	}

	rec, err := stamp(rec, s.now)
	if err != nil {
		return Record{}, err
	}
	rec.Payload = slices.Clone(rec.Payload)

	s.records[rec.Name] = rec
	return rec, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Record{}, false, ErrNotInitialized
	}

	rec, ok := s.records[name]
	rec.Payload = slices.Clone(rec.Payload)
	return rec, ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.Name, b.Name) })
	return records, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return false, ErrNotInitialized
	}

	_, ok := s.records[name]
	delete(s.records, name)
	return ok, nil
}
