package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in memory for tests/dev, indexed by ID, email
// and CI. Uniqueness of email and CI is enforced under one lock.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.AccountID]*models.Account
	byEmail map[string]id.AccountID
	byCI    map[id.NationalID]id.AccountID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.AccountID]*models.Account),
		byEmail: make(map[string]id.AccountID),
		byCI:    make(map[id.NationalID]id.AccountID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(account.Email)
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	if _, taken := s.byCI[account.CI]; taken {
		return fmt.Errorf("ci already registered: %w", sentinel.ErrConflict)
	}
	cp := *account
	cp.Email = email
	s.byID[cp.ID] = &cp
	s.byEmail[email] = cp.ID
	s.byCI[cp.CI] = cp.ID
	return nil
}

// Delete removes an account. Accounts are never deleted by the service; this
// exists so an in-memory transaction can undo a Create.
func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[accountID]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byID, accountID)
	delete(s.byEmail, account.Email)
	delete(s.byCI, account.CI)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account, ok := s.byID[accountID]; ok {
		cp := *account
		return &cp, nil
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	accountID, ok := s.byEmail[models.NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return s.FindByID(ctx, accountID)
}

func (s *InMemoryStore) FindByCI(ctx context.Context, ci id.NationalID) (*models.Account, error) {
	s.mu.RLock()
	accountID, ok := s.byCI[ci]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return s.FindByID(ctx, accountID)
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, accountID id.AccountID, status models.AccountStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[accountID]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	account.Status = status
	account.UpdatedAt = at
	return nil
}

// CountByCI is used by tests to assert the one-account-per-CI invariant.
func (s *InMemoryStore) CountByCI(ci id.NationalID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, account := range s.byID {
		if account.CI == ci {
			n++
		}
	}
	return n
}
