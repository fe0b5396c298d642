// Package service implements staff registration against the authorization
// whitelist and credential login issuing signed session tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medgate/internal/auth/models"
	jwttoken "medgate/internal/jwt_token"
	rlmodels "medgate/internal/ratelimit/models"
	"medgate/internal/specialty"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks WhitelistStore,AccountStore,Hasher,TokenIssuer,Lockout

type WhitelistStore interface {
	FindByCI(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error)
	MarkRegistered(ctx context.Context, ci id.NationalID, accountID id.AccountID, at time.Time) error
}

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByCI(ctx context.Context, ci id.NationalID) (*models.Account, error)
}

// RegistrationStores are the stores visible inside a registration transaction.
type RegistrationStores struct {
	Whitelist WhitelistStore
	Accounts  AccountStore
}

// RegistrationTx runs fn atomically with respect to other registrations of
// the same CI. Implementations wrap a database transaction or, in memory, a
// per-CI lock with rollback.
type RegistrationTx interface {
	RunInTx(ctx context.Context, ci id.NationalID, fn func(ctx context.Context, stores RegistrationStores) error) error
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyDummy(password string)
}

type TokenIssuer interface {
	GenerateSessionToken(subject jwttoken.Subject, issuedAt time.Time, ttl time.Duration) (string, *jwttoken.Claims, error)
}

// Lockout is satisfied by *authlockout.Service.
type Lockout interface {
	Check(ctx context.Context, email string) (*rlmodels.Result, error)
	RecordFailure(ctx context.Context, email string) (*rlmodels.AuthLockout, error)
	Clear(ctx context.Context, email string) error
}

// Metrics is satisfied by *metrics.Metrics.
type Metrics interface {
	ObserveRegistration(outcome string, started time.Time)
	ObserveLogin(outcome string, started time.Time)
	IncrementTokensIssued()
}

// SpecialtyResolver maps a stored specialty to its catalog name.
type SpecialtyResolver interface {
	CanonicalName(name string) string
}

const defaultTokenTTL = 24 * time.Hour

var tracer = otel.Tracer("medgate/internal/auth/service")

type Service struct {
	whitelist   WhitelistStore
	accounts    AccountStore
	tx          RegistrationTx
	hasher      Hasher
	tokens      TokenIssuer
	lockout     Lockout
	specialties SpecialtyResolver
	metrics     Metrics
	logger      *slog.Logger
	audit       audit.Emitter
	tokenTTL    time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLockout enables brute-force protection on Login.
func WithLockout(l Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

func WithSpecialtyResolver(r SpecialtyResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.specialties = r
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func New(whitelist WhitelistStore, accounts AccountStore, tx RegistrationTx, hasher Hasher, tokens TokenIssuer, opts ...Option) (*Service, error) {
	switch {
	case whitelist == nil:
		return nil, errors.New("whitelist store is required")
	case accounts == nil:
		return nil, errors.New("account store is required")
	case tx == nil:
		return nil, errors.New("registration tx is required")
	case hasher == nil:
		return nil, errors.New("password hasher is required")
	case tokens == nil:
		return nil, errors.New("token issuer is required")
	}
	svc := &Service{
		whitelist:   whitelist,
		accounts:    accounts,
		tx:          tx,
		hasher:      hasher,
		tokens:      tokens,
		specialties: specialty.Default(),
		logger:      slog.Default(),
		tokenTTL:    defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// outcome is the metric label for an operation result.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if de, ok := dErrors.From(err); ok {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, outcome(err))
		if !isDomainError(err) || dErrors.HasCode(err, dErrors.CodeInternal) {
			span.RecordError(err)
		}
	}
	span.End()
}

func isDomainError(err error) bool {
	_, ok := dErrors.From(err)
	return ok
}

// internal wraps store failures; domain errors pass through unchanged.
func internal(err error, msg string) error {
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
