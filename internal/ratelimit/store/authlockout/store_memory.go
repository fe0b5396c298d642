// Package authlockout persists login failure counters. Stores are pure I/O:
// window and lock decisions belong to the service.
package authlockout

import (
	"context"
	"sync"
	"time"

	"medgate/internal/ratelimit/models"
)

// InMemoryAuthLockoutStore keeps records in a map for single-instance
// deployments and tests.
type InMemoryAuthLockoutStore struct {
	mu      sync.Mutex
	records map[string]*models.AuthLockout
}

func New() *InMemoryAuthLockoutStore {
	return &InMemoryAuthLockoutStore{records: make(map[string]*models.AuthLockout)}
}

// Get returns nil without error when no record exists.
func (s *InMemoryAuthLockoutStore) Get(_ context.Context, identifier string) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[identifier]; ok {
		return copyRecord(rec), nil
	}
	return nil, nil
}

// RecordFailure increments both counters, restarting each one whose window
// has passed since the previous failure.
func (s *InMemoryAuthLockoutStore) RecordFailure(_ context.Context, identifier string, now time.Time, window time.Duration) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		rec = &models.AuthLockout{Identifier: identifier}
		s.records[identifier] = rec
	}
	if rec.LastFailureAt.Before(now.Add(-window)) {
		rec.FailureCount = 0
	}
	if rec.LastFailureAt.Before(now.Add(-models.DailyWindow)) {
		rec.DailyFailures = 0
	}
	rec.FailureCount++
	rec.DailyFailures++
	rec.LastFailureAt = now
	return copyRecord(rec), nil
}

func (s *InMemoryAuthLockoutStore) Update(_ context.Context, record *models.AuthLockout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Identifier] = copyRecord(record)
	return nil
}

func (s *InMemoryAuthLockoutStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}

func copyRecord(rec *models.AuthLockout) *models.AuthLockout {
	cp := *rec
	if rec.LockedUntil != nil {
		until := *rec.LockedUntil
		cp.LockedUntil = &until
	}
	return &cp
}
