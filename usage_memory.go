package web2pdf

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process UsageStore backed by a mutex-guarded map.
// Suitable for tests and single-process deployments; all operations hold the
// lock for their full duration, so increments cannot lose updates.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]UsageRecord
}

// Compile-time interface check.
var _ UsageStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]UsageRecord)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	return rec, nil
}

func (s *MemoryStore) Create(_ context.Context, rec UsageRecord) (UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.UserID]; ok {
		return existing, nil
	}
	s.records[rec.UserID] = rec
	return rec, nil
}

func (s *MemoryStore) Increment(_ context.Context, userID string) (UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	rec.ConversionsUsed++
	s.records[userID] = rec
	return rec, nil
}

func (s *MemoryStore) Reset(_ context.Context, userID string, at time.Time) (UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	rec.ConversionsUsed = 0
	rec.LastReset = at
	s.records[userID] = rec
	return rec, nil
}

func (s *MemoryStore) SetPlan(_ context.Context, userID string, plan Plan) (UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	rec.Plan = plan
	s.records[userID] = rec
	return rec, nil
}
