// Package authlockout throttles password guessing per login identity: a
// window limit blocks after repeated failures and a hard lock applies once the
// daily failure count crosses a threshold.
package authlockout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"medgate/internal/platform/config"
	"medgate/internal/ratelimit/models"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/requestcontext"
)

type Store interface {
	Get(ctx context.Context, identifier string) (*models.AuthLockout, error)
	RecordFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (*models.AuthLockout, error)
	Update(ctx context.Context, record *models.AuthLockout) error
	Clear(ctx context.Context, identifier string) error
}

// Metrics is satisfied by *metrics.Metrics.
type Metrics interface {
	IncrementLockouts()
}

type Service struct {
	store          Store
	auditPublisher audit.Emitter
	metrics        Metrics
	logger         *slog.Logger
	config         config.LockoutConfig
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

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg config.LockoutConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// DefaultConfig allows 5 failures per 15 minutes and hard-locks for 15
// minutes after 10 failures in a day.
func DefaultConfig() config.LockoutConfig {
	return config.LockoutConfig{
		AttemptsPerWindow: 5,
		WindowDuration:    15 * time.Minute,
		HardLockThreshold: 10,
		HardLockDuration:  15 * time.Minute,
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth lockout store is required")
	}
	svc := &Service{
		store:  store,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check reports whether another login attempt is allowed for email.
func (s *Service) Check(ctx context.Context, email string) (*models.Result, error) {
	record, err := s.store.Get(ctx, models.NewAuthLockoutKey(email).String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}
	// a zero record keeps the same code path for unknown identities
	if record == nil {
		record = &models.AuthLockout{}
	}

	now := requestcontext.Now(ctx)
	result := &models.Result{
		Allowed:      true,
		FailureCount: record.FailureCount,
		Remaining:    record.RemainingAttempts(s.config.AttemptsPerWindow),
	}

	switch {
	case record.IsLockedAt(now):
		result.Allowed = false
		result.ResetAt = *record.LockedUntil
	case record.IsAttemptLimitReached(s.config.AttemptsPerWindow, s.config.WindowDuration, now):
		result.Allowed = false
		result.ResetAt = record.WindowResetAt(s.config.WindowDuration)
	}
	if !result.Allowed {
		result.Remaining = 0
	}
	return result, nil
}

// RecordFailure counts a failed attempt and applies the hard lock when the
// daily threshold is reached.
func (s *Service) RecordFailure(ctx context.Context, email string) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)
	key := models.NewAuthLockoutKey(email).String()
	current, err := s.store.RecordFailure(ctx, key, now, s.config.WindowDuration)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record auth failure")
	}

	if !current.ShouldHardLock(s.config.HardLockThreshold) || current.IsLockedAt(now) {
		return current, nil
	}

	current.ApplyHardLock(s.config.HardLockDuration, now)
	if err := s.store.Update(ctx, current); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update auth lockout record")
	}
	if s.metrics != nil {
		s.metrics.IncrementLockouts()
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAuthLockoutTriggered,
		audit.Event{Email: normalize(email)},
		"email", normalize(email),
		"daily_failures", current.DailyFailures,
		"locked_until", *current.LockedUntil,
	)
	return current, nil
}

// Clear drops the failure history after a successful login. Nothing is
// audited when there was nothing to clear.
func (s *Service) Clear(ctx context.Context, email string) error {
	key := models.NewAuthLockoutKey(email).String()
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}
	if record == nil {
		return nil
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear auth failures")
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAuthLockoutCleared,
		audit.Event{Email: normalize(email)},
		"email", normalize(email),
		"failure_count", record.FailureCount,
	)
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
