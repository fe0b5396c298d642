package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"medgate/internal/auth/models"
	"medgate/internal/auth/password"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/platform/sentinel"
	"medgate/pkg/requestcontext"
)

// Register validates a self-registration against the whitelist and, when every
// check passes, creates the account and consumes the entry atomically.
// Checks short-circuit in a fixed order so each rejection has one cause.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (account *models.Account, err error) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRegistration(outcome(err), started)
		}
		endSpan(span, err)
	}()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	account, err = s.register(ctx, req)
	if err != nil {
		s.auditRejected(ctx, req, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("account.role", account.Role.String()))
	s.logAudit(ctx, audit.EventAccountRegistered, audit.Event{
		AccountID:     account.ID,
		SubjectIDHash: audit.HashSubjectID(account.CI.String()),
		Email:         account.Email,
	},
		"account_id", account.ID.String(),
		"role", account.Role.String(),
	)
	return account, nil
}

func (s *Service) register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	ci, role, err := req.Validate()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	entry, err := s.whitelist.FindByCI(ctx, ci)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotInWhitelist, "no authorization found for this CI")
		}
		return nil, internal(err, "failed to read whitelist")
	}
	if err := checkEntry(entry, req.FullName, role, now); err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(req.Email)
	if err := s.checkUnused(ctx, email, ci); err != nil {
		return nil, err
	}
	if err := models.CheckPasswordStrength(req.Password); err != nil {
		return nil, err
	}

	// bcrypt is slow; keep it outside the per-CI critical section
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, dErrors.New(dErrors.CodeWeakPassword, "password is too long")
		}
		return nil, internal(err, "failed to hash password")
	}

	var created *models.Account
	err = s.tx.RunInTx(ctx, ci, func(ctx context.Context, stores RegistrationStores) error {
		current, err := stores.Whitelist.FindByCI(ctx, ci)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotInWhitelist, "no authorization found for this CI")
			}
			return internal(err, "failed to read whitelist")
		}
		// state may have moved since the first read
		if err := checkEntry(current, req.FullName, role, now); err != nil {
			return err
		}

		account, err := models.NewAccountFromEntry(current, email, req.FullName, hash, now)
		if err != nil {
			return err
		}
		if err := stores.Accounts.Create(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an account with this email or CI already exists")
			}
			return internal(err, "failed to create account")
		}
		if err := stores.Whitelist.MarkRegistered(ctx, ci, account.ID, now); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return dErrors.New(dErrors.CodeAlreadyRegistered, "this authorization was already used")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotInWhitelist, "no authorization found for this CI")
			}
			return internal(err, "failed to consume whitelist entry")
		}
		created = account
		return nil
	})
	if err != nil {
		return nil, internal(err, "registration transaction failed")
	}
	return created, nil
}

// checkEntry applies the whitelist checks in order: consumed, status, expiry,
// name, role.
func checkEntry(entry *models.WhitelistEntry, fullName string, role id.Role, now time.Time) error {
	if entry.Registered {
		return dErrors.New(dErrors.CodeAlreadyRegistered, "this authorization was already used")
	}
	if entry.Status != models.WhitelistActive {
		return dErrors.New(dErrors.CodeAuthorizationInactive, "authorization is not active").
			WithDetail("status", string(entry.Status))
	}
	if entry.IsExpiredAt(now) {
		return dErrors.New(dErrors.CodeAuthorizationExpired, "authorization has expired")
	}
	if !models.NamesMatch(fullName, entry.FullName) {
		return dErrors.New(dErrors.CodeNameMismatch, "name does not match the authorization")
	}
	if role != entry.AuthorizedRole {
		return dErrors.New(dErrors.CodeRoleNotAuthorized, "role is not the authorized role").
			WithDetail("authorized_role", entry.AuthorizedRole.String())
	}
	return nil
}

func (s *Service) checkUnused(ctx context.Context, email string, ci id.NationalID) error {
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return internal(err, "failed to look up account by email")
	}
	if _, err := s.accounts.FindByCI(ctx, ci); err == nil {
		return dErrors.New(dErrors.CodeConflict, "an account with this CI already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return internal(err, "failed to look up account by CI")
	}
	return nil
}

func (s *Service) auditRejected(ctx context.Context, req *models.RegisterRequest, err error) {
	subject := strings.ToUpper(strings.TrimSpace(req.CI))
	if ci, parseErr := id.ParseNationalID(req.CI); parseErr == nil {
		subject = ci.String()
	}
	s.logAudit(ctx, audit.EventRegistrationRejected, audit.Event{
		SubjectIDHash: audit.HashSubjectID(subject),
		Email:         models.NormalizeEmail(req.Email),
	},
		"reason", outcome(err),
	)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, base audit.Event, kv ...any) {
	audit.LogAudit(ctx, s.logger, s.audit, event, base, kv...)
}
