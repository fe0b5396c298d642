package whitelist

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
)

// Error Contract:
// - FindByCI, UpdateStatus return ErrNotFound for unknown CIs
// - MarkRegistered returns ErrNotFound or ErrAlreadyUsed
// - Create returns ErrConflict for duplicate CIs
//
// InMemoryStore keeps whitelist entries in memory for tests/dev. Entries are
// copied on the way in and out so callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.NationalID]*models.WhitelistEntry
}

func New() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.NationalID]*models.WhitelistEntry)}
}

func (s *InMemoryStore) FindByCI(_ context.Context, ci id.NationalID) (*models.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[ci]; ok {
		return clone(entry), nil
	}
	return nil, fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Create(_ context.Context, entry *models.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.CI]; exists {
		return fmt.Errorf("whitelist entry %s exists: %w", entry.CI, sentinel.ErrConflict)
	}
	s.entries[entry.CI] = clone(entry)
	return nil
}

// Put inserts or replaces an entry unconditionally. Used for seeding and for
// restoring a snapshot when an in-memory transaction rolls back.
func (s *InMemoryStore) Put(entry *models.WhitelistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.CI] = clone(entry)
}

func (s *InMemoryStore) MarkRegistered(_ context.Context, ci id.NationalID, accountID id.AccountID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ci]
	if !ok {
		return fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
	}
	if err := entry.MarkRegistered(accountID, at); err != nil {
		return fmt.Errorf("whitelist entry %s: %w", ci, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, ci id.NationalID, status models.WhitelistStatus, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ci]
	if !ok {
		return fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
	}
	entry.Status = status
	return nil
}

// List returns matching entries ordered by CI.
func (s *InMemoryStore) List(_ context.Context, filter models.WhitelistFilter) ([]*models.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WhitelistEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			out = append(out, clone(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CI < out[j].CI })
	return out, nil
}

func clone(e *models.WhitelistEntry) *models.WhitelistEntry {
	cp := *e
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		cp.ExpiresAt = &t
	}
	if e.RegisteredAt != nil {
		t := *e.RegisteredAt
		cp.RegisteredAt = &t
	}
	if e.AccountID != nil {
		a := *e.AccountID
		cp.AccountID = &a
	}
	return &cp
}
