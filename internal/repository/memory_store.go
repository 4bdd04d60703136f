package repository

import (
	"context"
	"sync"

	"educonnect-tracking/internal/models"
)

// MemoryTrackingStore implements TrackingStore with an in-process map.
// Records are deep-copied on the way in and out so callers never share
// memory with the stored document, matching the copy semantics of the Redis
// adapter. Used by tests and local runs; record expiry is the Redis
// adapter's concern.
type MemoryTrackingStore struct {
	mu      sync.RWMutex
	records map[string]*models.TrackingRecord
}

func NewMemoryTrackingStore() *MemoryTrackingStore {
	return &MemoryTrackingStore{
		records: make(map[string]*models.TrackingRecord),
	}
}

func (s *MemoryTrackingStore) Get(_ context.Context, userID string) (*models.TrackingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[userID]
	if !exists {
		return nil, nil
	}
	return record.Clone(), nil
}

func (s *MemoryTrackingStore) Save(_ context.Context, record *models.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.UserID] = record.Clone()
	return nil
}

func (s *MemoryTrackingStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

func (s *MemoryTrackingStore) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.records))
	for userID := range s.records {
		users = append(users, userID)
	}
	return users, nil
}
