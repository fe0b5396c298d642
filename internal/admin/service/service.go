// Package service implements operator management of the authorization
// whitelist and of account status.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/platform/sentinel"
	"medgate/pkg/requestcontext"
)

type WhitelistStore interface {
	Create(ctx context.Context, entry *models.WhitelistEntry) error
	FindByCI(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error)
	UpdateStatus(ctx context.Context, ci id.NationalID, status models.WhitelistStatus, at time.Time) error
	List(ctx context.Context, filter models.WhitelistFilter) ([]*models.WhitelistEntry, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	UpdateStatus(ctx context.Context, accountID id.AccountID, status models.AccountStatus, at time.Time) error
}

// Service orchestrates whitelist and account administration.
type Service struct {
	whitelist      WhitelistStore
	accounts       AccountStore
	logger         *slog.Logger
	auditPublisher audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(whitelist WhitelistStore, accounts AccountStore, opts ...Option) (*Service, error) {
	if whitelist == nil || accounts == nil {
		return nil, errors.New("whitelist and account stores are required")
	}
	s := &Service{whitelist: whitelist, accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// CreateEntryCommand carries a validated authorization to add to the whitelist.
type CreateEntryCommand struct {
	CI             id.NationalID
	FullName       string
	Email          string
	AuthorizedRole id.Role
	Department     string
	Specialty      string
	Title          string
	JoinedAt       time.Time
	ExpiresAt      *time.Time
	AuthorizedBy   string
}

// CreateEntry adds an ACTIVE, unconsumed authorization. A zero JoinedAt
// defaults to the request time.
func (s *Service) CreateEntry(ctx context.Context, cmd CreateEntryCommand) (*models.WhitelistEntry, error) {
	joinedAt := cmd.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = requestcontext.Now(ctx)
	}
	entry, err := models.NewWhitelistEntry(cmd.CI, cmd.FullName, cmd.Email, cmd.AuthorizedRole,
		cmd.Department, cmd.Specialty, cmd.Title, cmd.AuthorizedBy, joinedAt, cmd.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.whitelist.Create(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an authorization already exists for this CI")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create whitelist entry")
	}

	s.logAudit(ctx, audit.EventWhitelistEntryCreated, audit.Event{
		SubjectIDHash: audit.HashSubjectID(entry.CI.String()),
		Email:         entry.Email,
		ActorID:       entry.AuthorizedBy,
	},
		"role", entry.AuthorizedRole.String(),
		"department", entry.Department,
	)
	return entry, nil
}

func (s *Service) GetEntry(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error) {
	entry, err := s.whitelist.FindByCI(ctx, ci)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "whitelist entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read whitelist entry")
	}
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, filter models.WhitelistFilter) ([]*models.WhitelistEntry, error) {
	entries, err := s.whitelist.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list whitelist entries")
	}
	return entries, nil
}

// UpdateEntryStatus changes the administrative status of an authorization.
// The registered flag is left untouched: a consumed entry stays consumed.
func (s *Service) UpdateEntryStatus(ctx context.Context, actor string, ci id.NationalID, status models.WhitelistStatus) (*models.WhitelistEntry, error) {
	entry, err := s.GetEntry(ctx, ci)
	if err != nil {
		return nil, err
	}
	if entry.Status == status {
		return entry, nil
	}

	now := requestcontext.Now(ctx)
	if err := s.whitelist.UpdateStatus(ctx, ci, status, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "whitelist entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update whitelist status")
	}

	previous := entry.Status
	entry.Status = status
	base := audit.Event{
		SubjectIDHash: audit.HashSubjectID(ci.String()),
		ActorID:       actor,
	}
	if entry.AccountID != nil {
		base.AccountID = *entry.AccountID
	}
	s.logAudit(ctx, audit.EventWhitelistStatusChanged, base,
		"from", string(previous),
		"to", string(status),
		"reason", string(status),
	)
	return entry, nil
}

// UpdateAccountStatus suspends, disables or reactivates an account. Tokens
// already issued stay valid until they expire.
func (s *Service) UpdateAccountStatus(ctx context.Context, actor string, accountID id.AccountID, status models.AccountStatus) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read account")
	}
	if account.Status == status {
		return account, nil
	}

	now := requestcontext.Now(ctx)
	if err := s.accounts.UpdateStatus(ctx, accountID, status, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account status")
	}

	previous := account.Status
	account.Status = status
	account.UpdatedAt = now
	s.logAudit(ctx, audit.EventAccountStatusChanged, audit.Event{
		AccountID:     account.ID,
		SubjectIDHash: audit.HashSubjectID(account.CI.String()),
		Email:         account.Email,
		ActorID:       actor,
	},
		"account_id", account.ID.String(),
		"from", string(previous),
		"to", string(status),
		"reason", string(status),
	)
	return account, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, base audit.Event, kv ...any) {
	audit.LogAudit(ctx, s.logger, s.auditPublisher, event, base, kv...)
}
